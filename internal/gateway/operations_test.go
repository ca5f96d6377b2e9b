package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uigate/internal/gateway/provider"
)

// stubCaller 回放固定应答并记录收到的请求。
type stubCaller struct {
	text  string
	err   error
	calls []struct {
		operation string
		req       provider.CallRequest
	}
}

func (s *stubCaller) Call(_ context.Context, operation string, req provider.CallRequest) (provider.CallResult, error) {
	s.calls = append(s.calls, struct {
		operation string
		req       provider.CallRequest
	}{operation, req})
	if s.err != nil {
		return provider.CallResult{}, s.err
	}
	return provider.CallResult{Raw: []byte(`{}`), Text: s.text}, nil
}

type memRecorder struct {
	records []CallRecord
}

func (m *memRecorder) Record(rec CallRecord) { m.records = append(m.records, rec) }

func newTestGateway(caller provider.Caller, rec Recorder) *Gateway {
	return New(caller, "anthropic", 0.75, rec)
}

func screenshotB64(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestCommands(t *testing.T) {
	t.Run("fenced yaml validated", func(t *testing.T) {
		caller := &stubCaller{text: "```yaml\ncommands:\n  - command: click\n    x: 10\n    y: 20\n```"}
		g := newTestGateway(caller, nil)

		res, err := g.Commands(context.Background(), CommandsInput{Instruction: "click the login button"})
		require.NoError(t, err)
		assert.True(t, res.Fenced)
		assert.Contains(t, res.Commands, "command: click")
		assert.True(t, res.Validation.Valid)
	})

	t.Run("missing instruction rejected", func(t *testing.T) {
		g := newTestGateway(&stubCaller{}, nil)
		_, err := g.Commands(context.Background(), CommandsInput{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("backend error wrapped with operation", func(t *testing.T) {
		caller := &stubCaller{err: &provider.ClassifiedError{Cause: provider.CauseRateLimit, Retryable: true}}
		rec := &memRecorder{}
		g := newTestGateway(caller, rec)

		_, err := g.Commands(context.Background(), CommandsInput{Instruction: "click"})
		require.Error(t, err)
		assert.Equal(t, provider.CauseRateLimit, provider.AsClassified(err).Cause)
		require.Len(t, rec.records, 1)
		assert.NotEmpty(t, rec.records[0].Error)
		assert.Equal(t, "commands", rec.records[0].Operation)
	})
}

func TestAssert(t *testing.T) {
	t.Run("strict json verdict", func(t *testing.T) {
		caller := &stubCaller{text: `{"passed": true, "reason": "welcome banner shown", "confidence": 0.95}`}
		rec := &memRecorder{}
		g := newTestGateway(caller, rec)

		res, err := g.Assert(context.Background(), AssertInput{Assertion: "welcome message is visible"})
		require.NoError(t, err)
		assert.True(t, res.Passed)
		assert.False(t, res.Fallback)
		require.Len(t, rec.records, 1)
		assert.False(t, rec.records[0].Fallback)
	})

	t.Run("affirmative prose falls back below parsed confidence", func(t *testing.T) {
		caller := &stubCaller{text: "Yes, the welcome message is visible."}
		rec := &memRecorder{}
		g := newTestGateway(caller, rec)

		res, err := g.Assert(context.Background(), AssertInput{Assertion: "welcome message is visible"})
		require.NoError(t, err)
		assert.True(t, res.Passed)
		assert.True(t, res.Fallback)
		assert.InDelta(t, 0.75, res.Confidence, 1e-9)
		assert.Contains(t, res.Reason, "welcome message is visible")
		require.Len(t, rec.records, 1)
		assert.True(t, rec.records[0].Fallback)
	})
}

func TestTaskCheck(t *testing.T) {
	shot := screenshotB64(t)

	t.Run("both screenshots required", func(t *testing.T) {
		g := newTestGateway(&stubCaller{}, nil)
		_, err := g.TaskCheck(context.Background(), TaskCheckInput{Instruction: "open settings", ScreenshotBefore: shot})
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.ErrorContains(t, err, "screenshot_after")
	})

	t.Run("screenshots attached in order", func(t *testing.T) {
		caller := &stubCaller{text: `{"success": true, "reason": "settings page open"}`}
		g := newTestGateway(caller, nil)

		res, err := g.TaskCheck(context.Background(), TaskCheckInput{
			Instruction:      "open settings",
			ScreenshotBefore: shot,
			ScreenshotAfter:  shot,
		})
		require.NoError(t, err)
		assert.True(t, res.Passed)

		require.Len(t, caller.calls, 1)
		blocks := caller.calls[0].req.Messages[0].Content
		require.Len(t, blocks, 3)
		assert.False(t, blocks[0].IsImage())
		assert.True(t, blocks[1].IsImage())
		assert.True(t, blocks[2].IsImage())
	})
}

func TestScenarios(t *testing.T) {
	caller := &stubCaller{text: `["try an empty password", "try sql injection in the name field"]`}
	g := newTestGateway(caller, nil)

	res, err := g.Scenarios(context.Background(), ScenariosInput{Context: "login form"})
	require.NoError(t, err)
	assert.Len(t, res.Scenarios, 2)
	assert.False(t, res.Fallback)
}

func TestLocateText(t *testing.T) {
	shot := screenshotB64(t)

	t.Run("strict coordinates round trip", func(t *testing.T) {
		caller := &stubCaller{text: `{"found": true, "x": 120, "y": 48, "confidence": 0.91}`}
		g := newTestGateway(caller, nil)

		res, err := g.LocateText(context.Background(), TextLocateInput{Target: "Submit", Screenshot: shot})
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.Equal(t, 120, res.X)
		assert.Equal(t, 48, res.Y)
	})

	t.Run("prose answer never yields coordinates", func(t *testing.T) {
		caller := &stubCaller{text: "I think the submit button is near the bottom."}
		g := newTestGateway(caller, nil)

		res, err := g.LocateText(context.Background(), TextLocateInput{Target: "Submit", Screenshot: shot})
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.True(t, res.Fallback)
		assert.Zero(t, res.X)
		assert.Zero(t, res.Y)
	})

	t.Run("screenshot required", func(t *testing.T) {
		g := newTestGateway(&stubCaller{}, nil)
		_, err := g.LocateText(context.Background(), TextLocateInput{Target: "Submit"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestLocateImage(t *testing.T) {
	shot := screenshotB64(t)

	t.Run("template and screenshot both attached", func(t *testing.T) {
		caller := &stubCaller{text: `{"found": true, "x": 5, "y": 6, "confidence": 0.8}`}
		g := newTestGateway(caller, nil)

		res, err := g.LocateImage(context.Background(), ImageLocateInput{Template: shot, Screenshot: shot})
		require.NoError(t, err)
		assert.True(t, res.Found)

		blocks := caller.calls[0].req.Messages[0].Content
		images := 0
		for _, b := range blocks {
			if b.IsImage() {
				images++
			}
		}
		assert.Equal(t, 2, images)
	})

	t.Run("template required", func(t *testing.T) {
		g := newTestGateway(&stubCaller{}, nil)
		_, err := g.LocateImage(context.Background(), ImageLocateInput{Screenshot: shot})
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.ErrorContains(t, err, "template")
	})
}

func TestRecover(t *testing.T) {
	caller := &stubCaller{text: "The selector changed; retry with the new id."}
	g := newTestGateway(caller, nil)

	res, err := g.Recover(context.Background(), RecoverInput{Error: "element not found: #login"})
	require.NoError(t, err)
	assert.Equal(t, "The selector changed; retry with the new id.", res.Advice)

	_, err = g.Recover(context.Background(), RecoverInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeepHealth(t *testing.T) {
	g := newTestGateway(&stubCaller{text: "OK"}, nil)
	assert.NoError(t, g.DeepHealth(context.Background()))

	g = newTestGateway(&stubCaller{err: errors.New("boom")}, nil)
	assert.Error(t, g.DeepHealth(context.Background()))
}
