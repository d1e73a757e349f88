package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"partselect/parser/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
)

const (
	ServerName      = "PartSelect MCP Server"
	GetPartDetail   = "get_part_detail"
	partNumberParam = "part_select_number"
)

// PartLookup returns the record of one part, possibly from cache.
type PartLookup interface {
	ScrapePart(ctx context.Context, partNumber string, force bool) (domain.PartRecord, error)
}

// Lookup serves both tools of the server.
type Lookup interface {
	PartLookup
	RepairLookup
}

// NewServer returns an MCP server exposing the part and repair guide tools.
func NewServer(lookup Lookup, version string) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	tool := mcp.NewTool(GetPartDetail,
		mcp.WithDescription("Get comprehensive part details from PartSelect.com: name, price, part numbers, "+
			"installation difficulty and time, reviews, stock, description, symptoms, replaced parts, "+
			"related products, installation videos and compatible models. "+
			"Only refrigerator and dishwasher parts are supported."),
		mcp.WithString(partNumberParam,
			mcp.Required(),
			mcp.Description("The PartSelect part number, e.g. 'PS11752778'"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(tool, handleGetPartDetail(lookup))
	s.AddTool(repairGuidesTool(), handleGetRepairGuides(lookup))

	return s
}

func handleGetPartDetail(lookup PartLookup) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		partNumber, err := request.RequireString(partNumberParam)
		if err != nil {
			return mcp.NewToolResultError(partNumberParam + " is required"), nil
		}

		log.Infof("🔧 %s called with %s=%q", GetPartDetail, partNumberParam, partNumber)

		record, err := lookup.ScrapePart(ctx, partNumber, false)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get part %s: %v", partNumber, err)), nil
		}

		if !supportedProductType(record.ProductType) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"Sorry, I can only help with refrigerator or dishwasher parts. Part %s is listed as %q.",
				partNumber, record.ProductType)), nil
		}

		text, err := marshalJSON(CleanRecord(record))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode part %s: %v", partNumber, err)), nil
		}

		log.Infof("✅ Retrieved part details for %s", partNumber)
		return mcp.NewToolResultText(text), nil
	}
}

func supportedProductType(productType string) bool {
	return productType == domain.ProductTypeRefrigerator || productType == domain.ProductTypeDishwasher
}

func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
