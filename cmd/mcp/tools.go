package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/fssp-api/internal/models"
	"github.com/nexconsult/fssp-api/internal/services"
	"github.com/nexconsult/fssp-api/internal/utils"
)

const recordFields = "Each record has region, debtor, ip (proceeding number), doc, end_reason, debt, office and bailiff."

// toolServer answers tool calls with the search facade
type toolServer struct {
	service services.FSSPServiceInterface
	logger  *logrus.Logger
	now     func() time.Time
}

type searchPayload struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Items   models.CaseList `json:"items"`
}

type failurePayload struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// newMCPServer registers the three search tools
func newMCPServer(ts *toolServer, version string) *server.MCPServer {
	s := server.NewMCPServer("FSSP Search Server", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("search_by_ip",
		mcp.WithDescription("Search enforcement proceedings by proceeding number. "+recordFields),
		mcp.WithString("ip_number",
			mcp.Required(),
			mcp.Description("Proceeding number, e.g. 342956/24/23060-ИП or 1234567/12/34/56"),
		),
	), ts.searchByIP)

	s.AddTool(mcp.NewTool("search_by_person",
		mcp.WithDescription("Search enforcement proceedings by debtor name and birth date. "+recordFields),
		mcp.WithString("last_name", mcp.Required(), mcp.Description("Last name")),
		mcp.WithString("first_name", mcp.Required(), mcp.Description("First name")),
		mcp.WithString("birthday", mcp.Required(), mcp.Description("Birth date in DD.MM.YYYY, e.g. 16.05.1992")),
		mcp.WithString("patronymic", mcp.Description("Patronymic, optional")),
	), ts.searchByPerson)

	s.AddTool(mcp.NewTool("search_by_inn",
		mcp.WithDescription("Search enforcement proceedings by INN. "+recordFields),
		mcp.WithString("inn", mcp.Required(), mcp.Description("INN, 10 digits for companies or 12 for individuals")),
	), ts.searchByINN)

	return s
}

func (ts *toolServer) searchByIP(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	number, err := utils.ValidateIPNumber(req.GetString("ip_number", ""))
	if err != nil {
		return ts.reply(req, nil, err)
	}

	result, err := ts.service.ByIP(ctx, number)
	return ts.reply(req, result, err)
}

func (ts *toolServer) searchByPerson(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := utils.ValidatePerson(
		req.GetString("last_name", ""),
		req.GetString("first_name", ""),
		req.GetString("patronymic", ""),
		req.GetString("birthday", ""),
		ts.now(),
	)
	if err != nil {
		return ts.reply(req, nil, err)
	}

	result, err := ts.service.ByPerson(ctx, query)
	return ts.reply(req, result, err)
}

func (ts *toolServer) searchByINN(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inn, err := utils.ValidateINN(req.GetString("inn", ""))
	if err != nil {
		return ts.reply(req, nil, err)
	}

	result, err := ts.service.ByINN(ctx, inn)
	return ts.reply(req, result, err)
}

// reply encodes the outcome as JSON text. Failures are tool errors, not protocol errors.
func (ts *toolServer) reply(req mcp.CallToolRequest, result *models.SearchResult, err error) (*mcp.CallToolResult, error) {
	var payload interface{}
	if err != nil {
		failure := toolFailure(err)
		ts.logger.WithFields(logrus.Fields{
			"tool":       req.Params.Name,
			"error_type": failure.ErrorType,
		}).WithError(err).Warn("Tool call failed")
		payload = failure
	} else {
		items := result.Items
		if items == nil {
			items = models.CaseList{}
		}
		payload = searchPayload{Success: true, Count: len(items), Items: items}
	}

	data, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return mcp.NewToolResultError(models.UnexpectedErrorMessage), nil
	}

	out := mcp.NewToolResultText(string(data))
	out.IsError = err != nil
	return out, nil
}

// toolFailure maps err to the message and type a tool caller sees
func toolFailure(err error) failurePayload {
	var validationErr *utils.ValidationError
	if errors.As(err, &validationErr) {
		return failurePayload{Error: validationErr.Error(), ErrorType: "INVALID_REQUEST"}
	}

	if kind, ok := models.KindOf(err); ok {
		return failurePayload{Error: models.PublicMessage(err), ErrorType: kind.Code()}
	}
	return failurePayload{Error: models.UnexpectedErrorMessage, ErrorType: "INTERNAL_ERROR"}
}
