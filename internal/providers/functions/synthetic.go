package functions

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"

	"github.com/google/uuid"

	"contentstudio/internal/domain"
	"contentstudio/internal/infra"
)

const (
	syntheticSceneCount  = 4
	syntheticSampleRate  = 16000
	syntheticVoiceLength = 6
)

var syntheticNamespace = uuid.MustParse("0d3c5a7e-51a4-4b8e-9b55-6c1f0a2d7e90")

func (c *Client) syntheticScript(params domain.JobParams) string {
	return uuid.NewSHA1(syntheticNamespace, []byte(params.BusinessName+"|"+params.Style)).String()
}

func (c *Client) syntheticScenes(ctx context.Context, videoID string, params domain.JobParams, preset infra.StylePreset) ([]string, error) {
	paths := make([]string, 0, syntheticSceneCount)
	for i := 0; i < syntheticSceneCount; i++ {
		seed := deterministicSeed(videoID, params.BusinessName, preset.SceneModel, i)
		data, err := renderSyntheticImage(c.width, c.height, seed)
		if err != nil {
			return nil, fmt.Errorf("render scene %d: %w", i+1, err)
		}
		key, err := c.store.Put(ctx, fmt.Sprintf("scenes/%s/%02d.png", videoID, i+1), data, "image/png")
		if err != nil {
			return nil, fmt.Errorf("store scene %d: %w", i+1, err)
		}
		paths = append(paths, key)
	}

	c.logger.Debug().
		Str("video_id", videoID).
		Str("model", preset.SceneModel).
		Int("scenes", len(paths)).
		Msg("functions: generated synthetic scenes")

	return paths, nil
}

func (c *Client) syntheticVoice(ctx context.Context, videoID, voiceID string) (string, error) {
	seed := deterministicSeed(videoID, voiceID)
	data := renderTone(seed, syntheticVoiceLength)
	key, err := c.store.Put(ctx, fmt.Sprintf("audio/%s/voiceover.wav", videoID), data, "audio/wav")
	if err != nil {
		return "", fmt.Errorf("store voiceover: %w", err)
	}

	c.logger.Debug().
		Str("video_id", videoID).
		Str("voice_id", voiceID).
		Msg("functions: generated synthetic voiceover")

	return key, nil
}

func renderSyntheticImage(width, height int, seed string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	stripeHeight := max(32, height/12)
	for y := 0; y < height; y += stripeHeight * 2 {
		stripe := image.Rect(0, y, width, min(height, y+stripeHeight))
		draw.Draw(img, stripe, &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderTone writes a 16-bit mono PCM WAV holding a sine tone whose pitch is
// derived from seed.
func renderTone(seed string, seconds int) []byte {
	samples := syntheticSampleRate * seconds
	freq := 220 + float64(colorFromSeed(seed, 0).R)

	var buf bytes.Buffer
	dataSize := uint32(samples * 2)
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(syntheticSampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(syntheticSampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	for i := 0; i < samples; i++ {
		v := math.Sin(2 * math.Pi * freq * float64(i) / syntheticSampleRate)
		binary.Write(&buf, binary.LittleEndian, int16(v*8000))
	}
	return buf.Bytes()
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if len(seed) < 6 {
		seed = "000000"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{R: parseHexByte(segment[0:2]), G: parseHexByte(segment[2:4]), B: parseHexByte(segment[4:6]), A: 255}
}

func parseHexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(fmt.Sprintf("%v", part)))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}
