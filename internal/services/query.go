package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nexconsult/fssp-api/internal/config"
	"github.com/nexconsult/fssp-api/internal/models"
)

// allRegions makes the person search span every region
const allRegions = "-1"

// BuildURL renders the search URL for query from the configured templates.
// Placeholders are written as {name} and values are query-escaped.
func BuildURL(templates config.FSSPConfig, query models.Query) (string, error) {
	switch q := query.(type) {
	case models.IPQuery:
		return render(templates.IPURLTemplate, map[string]string{
			"ip_number": q.Number,
		}), nil
	case models.PersonQuery:
		return render(templates.PersonURLTemplate, map[string]string{
			"last_name":  q.LastName,
			"first_name": q.FirstName,
			"patronymic": q.Patronymic,
			"birthday":   q.Birthday,
			"region_id":  allRegions,
		}), nil
	case models.INNQuery:
		return render(templates.INNURLTemplate, map[string]string{
			"inn": q.INN,
		}), nil
	default:
		return "", fmt.Errorf("unsupported query type %T", query)
	}
}

func render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for name, value := range values {
		pairs = append(pairs, "{"+name+"}", url.QueryEscape(value))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
