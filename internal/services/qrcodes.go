package services

import (
	"context"
	"crypto/rand"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"
	"time"

	"acty-backend-go/internal/models"
	"acty-backend-go/internal/store"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultMultiUses = 1000
	MaxQuantity      = 100

	MinImageSize     = 128
	MaxImageSize     = 1024
	DefaultImageSize = 256

	sheetColumns = 4
	sheetMargin  = 24
)

type QRService struct {
	Store      store.Store
	BaseURL    string
	DefaultTTL time.Duration
	Telemetry  *Telemetry
	Now        func() time.Time
}

type GenerateQRInput struct {
	ActivityID string     `json:"activityId" validate:"required"`
	Type       string     `json:"type" validate:"omitempty,oneof=SINGLE_USE MULTI_USE LIMITED_USE single_use multi_use limited_use"`
	MaxUses    *int       `json:"maxUses" validate:"omitempty,min=1"`
	ExpiredAt  *time.Time `json:"expiredAt"`
	Quantity   int        `json:"quantity" validate:"omitempty,min=1,max=100"`
}

func (s *QRService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// ScanURL is the address encoded into a code's image.
func (s *QRService) ScanURL(code string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/scan/" + code
}

func (s *QRService) Generate(ctx context.Context, input GenerateQRInput) ([]models.QRCode, error) {
	activityID, err := NormalizeRequired(input.ActivityID, "Activity is required")
	if err != nil {
		return nil, err
	}
	qrType := models.QRSingleUse
	if strings.TrimSpace(input.Type) != "" {
		parsed, ok := models.ParseQRType(input.Type)
		if !ok {
			return nil, ErrBadRequest("Invalid QR code type")
		}
		qrType = parsed
	}
	now := s.now()
	expiry := now.Add(s.DefaultTTL)
	if input.ExpiredAt != nil {
		if !input.ExpiredAt.After(now) {
			return nil, ErrBadRequest("Expiry must be in the future")
		}
		expiry = input.ExpiredAt.UTC()
	}

	quantity := input.Quantity
	maxUses := 1
	switch qrType {
	case models.QRSingleUse:
		if quantity == 0 {
			quantity = 1
		}
		if quantity < 1 || quantity > MaxQuantity {
			return nil, ErrBadRequest("Quantity must be between 1 and 100")
		}
	case models.QRMultiUse:
		quantity = 1
		maxUses = DefaultMultiUses
		if input.MaxUses != nil {
			maxUses = *input.MaxUses
		}
	case models.QRLimitedUse:
		quantity = 1
		if input.MaxUses == nil {
			return nil, ErrBadRequest("Limited-use codes need maxUses")
		}
		maxUses = *input.MaxUses
	}
	if maxUses < 1 {
		return nil, ErrBadRequest("maxUses must be at least 1")
	}

	if _, err := s.Store.GetActivity(ctx, activityID); err != nil {
		return nil, translate(err, "Activity not found")
	}
	codes, err := BuildCodes(activityID, qrType, maxUses, &expiry, quantity, now)
	if err != nil {
		return nil, err
	}
	if err := s.Store.InsertQRCodes(ctx, codes); err != nil {
		return nil, translate(err, "Activity not found")
	}
	s.Telemetry.ObserveGenerated(string(qrType), len(codes))
	return codes, nil
}

func (s *QRService) ListForActivity(ctx context.Context, activityID string) ([]models.QRCode, error) {
	if _, err := s.Store.GetActivity(ctx, activityID); err != nil {
		return nil, translate(err, "Activity not found")
	}
	return s.Store.ListQRCodes(ctx, activityID)
}

// BuildCodes creates quantity unsaved codes sharing the same settings.
func BuildCodes(activityID string, qrType models.QRType, maxUses int, expiry *time.Time, quantity int, now time.Time) ([]models.QRCode, error) {
	if qrType == models.QRSingleUse {
		maxUses = 1
	}
	codes := make([]models.QRCode, 0, quantity)
	seen := map[string]bool{}
	for len(codes) < quantity {
		code, err := NewCode(now)
		if err != nil {
			return nil, err
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, models.QRCode{
			ID:         uuid.NewString(),
			Code:       code,
			ActivityID: activityID,
			Type:       qrType,
			MaxUses:    maxUses,
			ExpiredAt:  expiry,
			CreatedAt:  now,
		})
	}
	return codes, nil
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewCode returns QR-<unix millis>-<9 random base36 chars>.
func NewCode(now time.Time) (string, error) {
	suffix := make([]byte, 0, 9)
	buf := make([]byte, 16)
	for len(suffix) < 9 {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			// 252 is the largest multiple of 36 below 256.
			if b >= 252 || len(suffix) == 9 {
				continue
			}
			suffix = append(suffix, base36[b%36])
		}
	}
	return "QR-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + string(suffix), nil
}

func ClampImageSize(size int) int {
	switch {
	case size == 0:
		return DefaultImageSize
	case size < MinImageSize:
		return MinImageSize
	case size > MaxImageSize:
		return MaxImageSize
	}
	return size
}

// RenderPNG encodes the scan URL of code as a PNG of size pixels square.
func (s *QRService) RenderPNG(ctx context.Context, code string, size int) ([]byte, error) {
	if _, err := s.Store.GetQRCodeByCode(ctx, code); err != nil {
		return nil, translate(err, "QR code not found")
	}
	return qrcode.Encode(s.ScanURL(code), qrcode.Medium, ClampImageSize(size))
}

// WriteSheet writes a printable PNG grid of the activity's unused codes.
func (s *QRService) WriteSheet(ctx context.Context, w io.Writer, activityID string, size int) error {
	codes, err := s.ListForActivity(ctx, activityID)
	if err != nil {
		return err
	}
	unused := make([]models.QRCode, 0, len(codes))
	for _, qr := range codes {
		if !qr.IsUsed {
			unused = append(unused, qr)
		}
	}
	if len(unused) == 0 {
		return ErrNotFound("Activity has no unused QR codes")
	}
	if len(unused) > MaxQuantity {
		unused = unused[:MaxQuantity]
	}
	sheet, err := s.composeSheet(unused, ClampImageSize(size))
	if err != nil {
		return err
	}
	return imaging.Encode(w, sheet, imaging.PNG)
}

func (s *QRService) composeSheet(codes []models.QRCode, size int) (image.Image, error) {
	cols := sheetColumns
	if len(codes) < cols {
		cols = len(codes)
	}
	rows := (len(codes) + sheetColumns - 1) / sheetColumns
	cell := size + sheetMargin
	sheet := imaging.New(cols*cell+sheetMargin, rows*cell+sheetMargin, color.White)
	for i, qr := range codes {
		q, err := qrcode.New(s.ScanURL(qr.Code), qrcode.Medium)
		if err != nil {
			return nil, err
		}
		x := sheetMargin + (i%sheetColumns)*cell
		y := sheetMargin + (i/sheetColumns)*cell
		sheet = imaging.Paste(sheet, q.Image(size), image.Pt(x, y))
	}
	return sheet, nil
}
