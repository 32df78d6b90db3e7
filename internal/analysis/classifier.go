package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/vaishnavucv/droid-proctoring/internal/config"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

const (
	cameraPrompt = `You are a strict proctoring security system for a high-security online exam. Analyze this camera frame.

Detect all of the following violations:
1. No face: no face visible (camera blocked, empty seat, face out of frame).
2. Fake face: face appears unnaturally blue, distorted, heavily filtered, or is a photo or screen of a face.
3. Multiple faces: two or more faces visible, including partial faces at frame edges, someone nearby, reflections, anyone in the background. Be very strict.
4. Talking to someone: candidate appears to be speaking, whispering, or communicating with another person.
5. Looking away: candidate looking significantly away from the screen (sideways, behind them, down at phone or notes).
6. Eye scanning: eyes moving significantly sideways, as if reading off-screen notes or another display.

Return JSON only: { "alert": boolean, "reason": "string", "behavior": { "faceDetected": boolean, "blueFaceDetected": boolean, "multipleFaces": boolean, "talkingToSomeone": boolean, "lookingAway": boolean, "eyeSideways": boolean } }`

	screenPrompt = `Analyze this proctoring screen capture for assessment security.
Requirements:
1. External IDE: alert if any external IDE (VS Code, IntelliJ, etc.) is visible.
2. AI tools: alert if ChatGPT, Claude, Gemini, or any AI tool website is visible.
3. Browser search: alert if unauthorized search tabs or search results are visible outside the allowed lab context.
4. Unauthorized apps: alert if any other unauthorized application windows are open (Discord, Slack, Spotify, etc.).
5. Common OS popups (volume, brightness, notifications) are allowed and must not trigger an alert.

Return JSON only: { "alert": boolean, "reason": "string", "behavior": { "ideDetected": boolean, "aiToolDetected": boolean, "searchDetected": boolean, "unauthorizedApp": boolean } }`

	identityPrompt = `You are a strict proctoring security system for an online exam. Compare these two images.
Image 1 is the registered reference face of the authorized candidate. Image 2 is the current live camera frame.

Analyze the current frame for all of these violations:
1. faceDetected: is at least one face visible?
2. samePerson: is the primary face the same person as the reference? Be strict.
3. multipleFaces: are two or more faces visible? Partial faces, reflections, or someone sitting nearby count.
4. talkingToSomeone: does the candidate appear to be talking, whispering, or communicating with another person nearby?
5. lookingAway: is the candidate looking significantly away from the screen?
6. suspiciousActivity: any other suspicious behavior, such as an earpiece, a phone, or reading notes.

If any second person is visible at all, multipleFaces must be true. Be very strict about all violations.

Return JSON only: { "faceDetected": boolean, "samePerson": boolean, "multipleFaces": boolean, "talkingToSomeone": boolean, "lookingAway": boolean, "suspiciousActivity": boolean, "confidence": number (0-100), "reason": "brief explanation of what you see" }`
)

// BehaviorSignals is the per-violation breakdown of a camera verdict.
type BehaviorSignals struct {
	FaceDetected     bool `json:"faceDetected"`
	BlueFaceDetected bool `json:"blueFaceDetected"`
	MultipleFaces    bool `json:"multipleFaces"`
	TalkingToSomeone bool `json:"talkingToSomeone"`
	LookingAway      bool `json:"lookingAway"`
	EyeSideways      bool `json:"eyeSideways"`
}

// CameraVerdict is the classifier's judgement of one camera frame.
type CameraVerdict struct {
	Alert    bool            `json:"alert"`
	Reason   string          `json:"reason"`
	Behavior BehaviorSignals `json:"behavior"`
}

// ScreenSignals is the per-violation breakdown of a screen verdict.
type ScreenSignals struct {
	IDEDetected     bool `json:"ideDetected"`
	AIToolDetected  bool `json:"aiToolDetected"`
	SearchDetected  bool `json:"searchDetected"`
	UnauthorizedApp bool `json:"unauthorizedApp"`
}

// ScreenVerdict is the classifier's judgement of one screen frame.
type ScreenVerdict struct {
	Alert    bool          `json:"alert"`
	Reason   string        `json:"reason"`
	Behavior ScreenSignals `json:"behavior"`
}

// IdentitySignals is the verdict of a reference-vs-current face comparison.
// Confidence is expressed as a 0-100 percentage.
type IdentitySignals struct {
	FaceDetected       bool    `json:"faceDetected"`
	SamePerson         bool    `json:"samePerson"`
	MultipleFaces      bool    `json:"multipleFaces"`
	TalkingToSomeone   bool    `json:"talkingToSomeone"`
	LookingAway        bool    `json:"lookingAway"`
	SuspiciousActivity bool    `json:"suspiciousActivity"`
	Confidence         float64 `json:"confidence"`
	Reason             string  `json:"reason"`
}

// Classifier is the vision model consulted by the analysis scheduler and the
// identity phase manager.
type Classifier interface {
	AnalyzeCamera(ctx context.Context, frame []byte) (*CameraVerdict, error)
	AnalyzeScreen(ctx context.Context, frame []byte) (*ScreenVerdict, error)
	CompareIdentity(ctx context.Context, reference, current []byte) (*IdentitySignals, error)
}

// Client talks to an OpenAI-compatible chat completions endpoint with image
// inputs. The model is asked for bare JSON; a reply that does not parse is
// treated as "nothing detected" rather than a hard error, so a chatty model
// degrades detection quality instead of terminating sessions.
type Client struct {
	http     *http.Client
	endpoint string
	apiKey   string
	model    string
}

func NewClient(cfg config.Classifier) *Client {
	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
	}
}

func (c *Client) AnalyzeCamera(ctx context.Context, frame []byte) (*CameraVerdict, error) {
	verdict := &CameraVerdict{}
	if err := c.complete(ctx, cameraPrompt, [][]byte{frame}, verdict); err != nil {
		return nil, err
	}
	return verdict, nil
}

func (c *Client) AnalyzeScreen(ctx context.Context, frame []byte) (*ScreenVerdict, error) {
	verdict := &ScreenVerdict{}
	if err := c.complete(ctx, screenPrompt, [][]byte{frame}, verdict); err != nil {
		return nil, err
	}
	return verdict, nil
}

func (c *Client) CompareIdentity(ctx context.Context, reference, current []byte) (*IdentitySignals, error) {
	signals := &IdentitySignals{}
	if err := c.complete(ctx, identityPrompt, [][]byte{reference, current}, signals); err != nil {
		return nil, err
	}
	return signals, nil
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, prompt string, images [][]byte, out interface{}) error {
	parts := []contentPart{{Type: "text", Text: prompt}}
	for _, img := range images {
		parts = append(parts, contentPart{
			Type: "image_url",
			ImageURL: &imageURL{
				URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img),
				Detail: "low",
			},
		})
	}

	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: parts}},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal classifier request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build classifier request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "classifier request failed")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return errors.Errorf("classifier returned %d: %s", res.StatusCode, string(payload))
	}

	var reply chatResponse
	if err := json.NewDecoder(res.Body).Decode(&reply); err != nil {
		return errors.Wrap(err, "failed to decode classifier response")
	}
	if len(reply.Choices) == 0 {
		return errors.New("classifier returned no choices")
	}

	content := extractJSON(reply.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		// Unparseable verdicts degrade to the zero value of the verdict
		// struct, which never raises an alert.
		util.LogFromContext(ctx).Warn().
			Str("content", truncate(reply.Choices[0].Message.Content, 200)).
			Msg("Classifier reply was not valid JSON, treating as no detection")
		return nil
	}
	return nil
}

// extractJSON strips markdown code fences and any prose around the first JSON
// object in a model reply.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
