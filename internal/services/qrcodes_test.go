package services

import (
	"bytes"
	"image/png"
	"net/http"
	"regexp"
	"testing"
	"time"

	"acty-backend-go/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^QR-\d+-[0-9a-z]{9}$`)

func TestNewCodeFormat(t *testing.T) {
	now := time.UnixMilli(1731661200123)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := NewCode(now)
		require.NoError(t, err)
		assert.Regexp(t, codePattern, code)
		assert.Contains(t, code, "-1731661200123-")
		seen[code] = true
	}
	assert.Greater(t, len(seen), 195)
}

func TestGenerateRules(t *testing.T) {
	f := newFixture(t)
	activity := f.createActivity(t, "Fair", models.CategoryCentral, 2, 0)

	single, err := f.qr.Generate(f.ctx, GenerateQRInput{ActivityID: activity.ID, Quantity: 3})
	require.NoError(t, err)
	require.Len(t, single, 3)
	assert.Equal(t, 1, single[0].MaxUses)

	five := 5
	multi, err := f.qr.Generate(f.ctx, GenerateQRInput{ActivityID: activity.ID, Type: "multi_use", Quantity: 10})
	require.NoError(t, err)
	require.Len(t, multi, 1, "shared codes are issued one at a time")
	assert.Equal(t, DefaultMultiUses, multi[0].MaxUses)

	limited, err := f.qr.Generate(f.ctx, GenerateQRInput{ActivityID: activity.ID, Type: "LIMITED_USE", MaxUses: &five})
	require.NoError(t, err)
	assert.Equal(t, 5, limited[0].MaxUses)
	require.NotNil(t, limited[0].ExpiredAt)
	assert.Equal(t, f.now.Add(7*24*time.Hour), *limited[0].ExpiredAt)

	past := f.now.Add(-time.Minute)
	zero := 0
	bad := map[string]GenerateQRInput{
		"no activity":     {},
		"bad type":        {ActivityID: activity.ID, Type: "FOREVER"},
		"too many":        {ActivityID: activity.ID, Quantity: 101},
		"limited no max":  {ActivityID: activity.ID, Type: "LIMITED_USE"},
		"limited zero":    {ActivityID: activity.ID, Type: "LIMITED_USE", MaxUses: &zero},
		"expired already": {ActivityID: activity.ID, ExpiredAt: &past},
	}
	for name, input := range bad {
		_, err := f.qr.Generate(f.ctx, input)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err), name)
	}

	_, err = f.qr.Generate(f.ctx, GenerateQRInput{ActivityID: "missing"})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	assert.Equal(t, 3.0, testutil.ToFloat64(f.telemetry.qrGenerated.WithLabelValues("SINGLE_USE")))
	assert.Equal(t, "https://acty.test/scan/"+single[0].Code, f.qr.ScanURL(single[0].Code))
}

func TestClampImageSize(t *testing.T) {
	assert.Equal(t, DefaultImageSize, ClampImageSize(0))
	assert.Equal(t, MinImageSize, ClampImageSize(10))
	assert.Equal(t, MaxImageSize, ClampImageSize(5000))
	assert.Equal(t, 300, ClampImageSize(300))
}

func TestRenderPNGAndSheet(t *testing.T) {
	f := newFixture(t)
	activity := f.createActivity(t, "Fair", models.CategoryCentral, 2, 5)
	codes, err := f.qr.ListForActivity(f.ctx, activity.ID)
	require.NoError(t, err)

	raw, err := f.qr.RenderPNG(f.ctx, codes[0].Code, 200)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	_, err = f.qr.RenderPNG(f.ctx, "QR-0-nothing", 200)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = f.scans.Scan(f.ctx, codes[0].Code, f.student.ID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.qr.WriteSheet(f.ctx, &buf, activity.ID, 128))
	sheet, err := png.Decode(&buf)
	require.NoError(t, err)
	cell := 128 + sheetMargin
	assert.Equal(t, 4*cell+sheetMargin, sheet.Bounds().Dx())
	assert.Equal(t, 1*cell+sheetMargin, sheet.Bounds().Dy(), "four unused codes fit one row")

	empty := f.createActivity(t, "Empty", models.CategoryFree, 1, 0)
	err = f.qr.WriteSheet(f.ctx, &buf, empty.ID, 128)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}
