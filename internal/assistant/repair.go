package assistant

import (
	"context"
	"fmt"
	"strings"

	"partselect/parser/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
)

const (
	GetRepairGuides    = "get_repair_guides"
	applianceParam     = "appliance_type"
	symptomParam       = "symptom"
	defaultAppliance   = "Dishwasher"
	unsupportedMessage = "Sorry, I can only help with refrigerator or dishwasher repairs."
)

// RepairLookup returns the repair guides of an appliance.
type RepairLookup interface {
	RepairGuide(ctx context.Context, appliance string) (domain.RepairGuide, error)
	SymptomDetail(ctx context.Context, appliance, symptom string) (domain.SymptomDetail, error)
}

func repairGuidesTool() mcp.Tool {
	return mcp.NewTool(GetRepairGuides,
		mcp.WithDescription("Get repair guides from PartSelect.com for an appliance: common symptoms with the "+
			"share of customers reporting them, and troubleshooting videos. With a symptom, e.g. 'Noisy', "+
			"returns the suspected causes with step by step instructions and the parts involved."),
		mcp.WithString(applianceParam,
			mcp.Description("'Dishwasher' (default) or 'Refrigerator'"),
		),
		mcp.WithString(symptomParam,
			mcp.Description("Symptom slug from the guide's url_slug field, e.g. 'Not-Draining'"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func handleGetRepairGuides(lookup RepairLookup) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		appliance := strings.TrimSpace(request.GetString(applianceParam, defaultAppliance))
		if appliance == "" {
			appliance = defaultAppliance
		}
		symptom := strings.TrimSpace(request.GetString(symptomParam, ""))

		log.Infof("🔧 %s called with %s=%q %s=%q", GetRepairGuides, applianceParam, appliance, symptomParam, symptom)

		if !supportedProductType(strings.ToLower(appliance)) {
			return mcp.NewToolResultError(unsupportedMessage), nil
		}

		var result any
		if symptom == "" {
			guide, err := lookup.RepairGuide(ctx, appliance)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to get %s repair guides: %v", appliance, err)), nil
			}
			result = CleanRepairGuide(guide)
		} else {
			detail, err := lookup.SymptomDetail(ctx, appliance, symptom)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to get %s symptom %s: %v", appliance, symptom, err)), nil
			}
			result = CleanSymptomDetail(detail)
		}

		text, err := marshalJSON(result)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode repair guides: %v", err)), nil
		}
		log.Infof("✅ Retrieved %s repair guides", appliance)
		return mcp.NewToolResultText(text), nil
	}
}
