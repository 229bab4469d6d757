package services

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/fssp-api/internal/models"
)

// AttemptsExceededPhrase is shown by the registry after too many wrong captcha codes
const AttemptsExceededPhrase = "Количество неверных попыток ввода кода превышено"

const (
	emptySelector      = ".empty"
	tableSelector      = ".results-frame table.list"
	looseTableSelector = "table.list"
	regionHeaderClass  = "region-title"
	caseRowCellCount   = 8
)

// ParserService extracts case records from the results region markup
type ParserService struct {
	logger *logrus.Logger
}

// NewParserService creates a new parser service
func NewParserService(logger *logrus.Logger) *ParserService {
	return &ParserService{logger: logger}
}

// Parse converts results markup into case records in document order.
// A missing table yields an empty list; the attempts-exceeded notice is an error
// even when a table is also present.
func (p *ParserService) Parse(html string) (models.CaseList, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, models.NewLookupError(models.KindResultParsingFailure, "results markup is not a document", err)
	}

	if attemptsExceeded(doc) {
		return nil, models.NewLookupError(models.KindCaptchaAttemptsExceeded, AttemptsExceededPhrase, nil)
	}

	table := doc.Find(tableSelector).First()
	if table.Length() == 0 {
		table = doc.Find(looseTableSelector).First()
	}
	if table.Length() == 0 {
		p.logger.Debug("Results table not found")
		return models.CaseList{}, nil
	}

	cases := foldRows(table.Find("tr"))

	p.logger.WithField("records", len(cases)).Debug("Results parsed")
	return cases, nil
}

func attemptsExceeded(doc *goquery.Document) bool {
	found := false
	doc.Find(emptySelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = strings.Contains(s.Text(), AttemptsExceededPhrase)
		return !found
	})
	return found
}

// foldRows walks rows carrying the region announced by the latest header row
func foldRows(rows *goquery.Selection) models.CaseList {
	cases := models.CaseList{}
	var region *string

	rows.Each(func(_ int, row *goquery.Selection) {
		switch {
		case row.Find("th").Length() > 0:
			return
		case row.HasClass(regionHeaderClass):
			name := collapseText(row)
			region = &name
			return
		}

		cells := row.Find("td")
		if cells.Length() != caseRowCellCount {
			return
		}

		text := make([]string, caseRowCellCount)
		cells.Each(func(i int, cell *goquery.Selection) {
			text[i] = collapseText(cell)
		})

		var recordRegion *string
		if region != nil {
			name := *region
			recordRegion = &name
		}

		// column 4 is the service type and is not exported
		cases = append(cases, models.CaseRecord{
			Region:            recordRegion,
			Debtor:            text[0],
			ProceedingNumber:  text[1],
			Document:          text[2],
			TerminationReason: text[3],
			Debt:              text[5],
			Office:            text[6],
			Bailiff:           text[7],
		})
	})

	return cases
}

// collapseText joins the trimmed non-empty text nodes under s with single spaces
func collapseText(s *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, node *goquery.Selection) {
			switch goquery.NodeName(node) {
			case "#text":
				if t := strings.TrimSpace(node.Text()); t != "" {
					parts = append(parts, t)
				}
			case "#comment", "script", "style":
			default:
				walk(node)
			}
		})
	}
	walk(s)
	return strings.Join(parts, " ")
}
