package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"gorm.io/gorm"

	"github.com/callsim/callsim-backend/internal/logger"
	"github.com/callsim/callsim-backend/internal/repos"
	"github.com/callsim/callsim-backend/internal/types"
	"github.com/callsim/callsim-backend/internal/utils"
)

const (
	avatarCanvasSize = 512
	avatarOutputSize = 256
	avatarFontPoints = 206
)

// Background palette for generated avatars. The color is chosen by hashing
// the username so the same name always gets the same color.
var defaultAvatarPalette = []color.NRGBA{
	{R: 0x4C, G: 0x6E, B: 0xF5, A: 0xFF},
	{R: 0x0E, G: 0xA5, B: 0xE9, A: 0xFF},
	{R: 0x10, G: 0xB9, B: 0x81, A: 0xFF},
	{R: 0xF5, G: 0x9E, B: 0x0B, A: 0xFF},
	{R: 0xF4, G: 0x3F, B: 0x5E, A: 0xFF},
	{R: 0x8B, G: 0x5C, B: 0xF6, A: 0xFF},
	{R: 0xEC, G: 0x48, B: 0x99, A: 0xFF},
	{R: 0x64, G: 0x74, B: 0x8B, A: 0xFF},
}

type AvatarService interface {
	// CreateUserAvatar renders an initials avatar for the profile, writes it
	// under the local media dir, and points the profile at it.
	CreateUserAvatar(ctx context.Context, tx *gorm.DB, profile *types.Profile) error
	GenerateAvatar(username string) (bytes.Buffer, string, error)
}

type avatarService struct {
	db          *gorm.DB
	log         *logger.Logger
	profileRepo repos.ProfileRepo
	mediaDir    string
	palette     []color.NRGBA
	fontFace    font.Face
}

func NewAvatarService(db *gorm.DB, log *logger.Logger, profileRepo repos.ProfileRepo) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	fontPath := strings.TrimSpace(utils.GetEnv("AVATAR_FONT", "", log))
	if fontPath == "" {
		return nil, fmt.Errorf("Env var AVATAR_FONT is empty")
	}
	face, err := loadFontFace(fontPath, avatarFontPoints)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	mediaDir := utils.GetEnv("AVATAR_MEDIA_DIR", "./media/avatars", log)
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create avatar media dir: %w", err)
	}

	return &avatarService{
		db:          db,
		log:         serviceLog,
		profileRepo: profileRepo,
		mediaDir:    mediaDir,
		palette:     defaultAvatarPalette,
		fontFace:    face,
	}, nil
}

func (as *avatarService) CreateUserAvatar(ctx context.Context, tx *gorm.DB, profile *types.Profile) error {
	buf, colorHex, err := as.GenerateAvatar(profile.Username)
	if err != nil {
		return err
	}

	// Versioned file name so cached URLs never go stale.
	relPath := filepath.Join(profile.ID.String(), fmt.Sprintf("%d.png", time.Now().UnixNano()))
	fullPath := filepath.Join(as.mediaDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("Failed to create avatar dir: %w", err)
	}
	if err := os.WriteFile(fullPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("Failed to write avatar file: %w", err)
	}

	oldPath := strings.TrimSpace(profile.AvatarPath)

	profile.AvatarPath = relPath
	profile.AvatarColor = colorHex
	if err := as.profileRepo.UpdateAvatar(ctx, tx, profile.ID, relPath, colorHex); err != nil {
		return fmt.Errorf("Failed to update profile avatar: %w", err)
	}

	if oldPath != "" {
		if err := os.Remove(filepath.Join(as.mediaDir, oldPath)); err != nil && !os.IsNotExist(err) {
			as.log.Warn("Failed to remove previous avatar file", "path", oldPath, "error", err)
		}
	}
	return nil
}

func (as *avatarService) GenerateAvatar(username string) (bytes.Buffer, string, error) {
	var buf bytes.Buffer

	bg := as.palette[paletteIndex(username, len(as.palette))]

	dc := gg.NewContext(avatarCanvasSize, avatarCanvasSize)
	dc.SetColor(bg)
	dc.Clear()

	dc.SetFontFace(as.fontFace)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(initials(username), avatarCanvasSize/2, avatarCanvasSize/2, 0.5, 0.58)

	scaled := image.NewNRGBA(image.Rect(0, 0, avatarOutputSize, avatarOutputSize))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), dc.Image(), dc.Image().Bounds(), draw.Over, nil)

	if err := png.Encode(&buf, scaled); err != nil {
		return buf, "", fmt.Errorf("Failed to encode avatar png: %w", err)
	}
	return buf, nrgbaToHex(bg), nil
}

func loadFontFace(path string, points float64) (font.Face, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsed, err := truetype.Parse(raw)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(parsed, &truetype.Options{Size: points}), nil
}

func initials(username string) string {
	fields := strings.Fields(strings.TrimSpace(username))
	switch len(fields) {
	case 0:
		return "?"
	case 1:
		return strings.ToUpper(string([]rune(fields[0])[0]))
	default:
		first := []rune(fields[0])[0]
		last := []rune(fields[len(fields)-1])[0]
		return strings.ToUpper(string(first) + string(last))
	}
}

func paletteIndex(username string, size int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(username))))
	return int(h.Sum32() % uint32(size))
}

func nrgbaToHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
