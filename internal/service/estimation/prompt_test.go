package estimation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/agroyield/internal/domain/models"
)

func TestBuildPromptListsProvidedProperties(t *testing.T) {
	payload, err := BuildPrompt(NormalizedRequest{
		CropType: "Wheat",
		PlotSize: 2,
		Soil:     map[string]any{"water": 25.0, "sunlight": 6.0},
	})
	require.NoError(t, err)
	require.Len(t, payload.Parts, 1)

	text := payload.Parts[0].Text
	assert.Contains(t, text, "Crop Type: Wheat")
	assert.Contains(t, text, "Plot Size: 2 acres")
	assert.Contains(t, text, "- Water Content (%): 25")
	assert.Contains(t, text, "- Sunlight Hours (hrs/day): 6")
	assert.NotContains(t, text, noPropertiesMarker)
}

func TestBuildPromptEmitsMarkerForEmptyBag(t *testing.T) {
	payload, err := BuildPrompt(NormalizedRequest{CropType: "Wheat", PlotSize: 2})
	require.NoError(t, err)

	assert.Contains(t, payload.Parts[0].Text, noPropertiesMarker)
}

func TestBuildPromptOmitsAbsentProperties(t *testing.T) {
	payload, err := BuildPrompt(NormalizedRequest{
		CropType: "Wheat",
		PlotSize: 2,
		Soil:     map[string]any{"water": 25.0},
	})
	require.NoError(t, err)

	text := payload.Parts[0].Text
	assert.NotContains(t, text, "Nitrogen")
	assert.NotContains(t, text, "Soil pH")
}

func TestBuildPromptRendersPropertiesInCatalogOrder(t *testing.T) {
	payload, err := BuildPrompt(NormalizedRequest{
		CropType: "Wheat",
		PlotSize: 2,
		Soil:     map[string]any{"mercury": 0.001, "nitrogen": 100.0},
	})
	require.NoError(t, err)

	text := payload.Parts[0].Text
	assert.Less(t, strings.Index(text, "Nitrogen"), strings.Index(text, "Mercury"))
}

func TestBuildPromptLocationSectionIsConditional(t *testing.T) {
	withLocation, err := BuildPrompt(NormalizedRequest{CropType: "Wheat", PlotSize: 2, Location: "Pune"})
	require.NoError(t, err)
	assert.Contains(t, withLocation.Parts[0].Text, "Location: Pune")

	withoutLocation, err := BuildPrompt(NormalizedRequest{CropType: "Wheat", PlotSize: 2})
	require.NoError(t, err)
	assert.NotContains(t, withoutLocation.Parts[0].Text, "Location:")
}

func TestBuildPromptAttachesPhotoInlineData(t *testing.T) {
	payload, err := BuildPrompt(NormalizedRequest{
		CropType:     "Wheat",
		PlotSize:     2,
		PhotoDataURI: "data:image/jpeg;base64,aGVsbG8=",
	})
	require.NoError(t, err)
	require.Len(t, payload.Parts, 2)

	inline := payload.Parts[1].InlineData
	require.NotNil(t, inline)
	assert.Equal(t, "image/jpeg", inline.MimeType)
	assert.Equal(t, "aGVsbG8=", inline.Data)
}

func TestBuildPromptRejectsMalformedPhoto(t *testing.T) {
	for _, uri := range []string{"not-a-data-uri", "data:;base64,abc", "data:image/png;base64,"} {
		_, err := BuildPrompt(NormalizedRequest{CropType: "Wheat", PlotSize: 2, PhotoDataURI: uri})

		var validationErr *models.ValidationError
		require.True(t, errors.As(err, &validationErr), "uri=%q", uri)
		assert.Equal(t, "photo", validationErr.Field)
	}
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	req := NormalizedRequest{
		CropType: "Rice",
		PlotSize: 3.5,
		Location: "Chennai",
		Soil:     map[string]any{"water": 40.0, "pH": 6.0, "nitrogen": 80.0},
	}

	first, err := BuildPrompt(req)
	require.NoError(t, err)
	second, err := BuildPrompt(req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildPromptRendersTextProperties(t *testing.T) {
	payload, err := BuildPrompt(NormalizedRequest{
		CropType: "Tomatoes",
		PlotSize: 1,
		Soil:     map[string]any{"atmosphericGases": "Standard Earth Atmosphere"},
	})
	require.NoError(t, err)

	assert.Contains(t, payload.Parts[0].Text, "- Atmospheric Gases: Standard Earth Atmosphere")
}
