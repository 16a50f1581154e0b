// Package gemini implements the planning collaborator against the
// Gemini API. One prompt/response exchange per plan, no retries.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/starford/studyflow/internal/planner"
)

// Client calls the Gemini API. The API key may legitimately be absent;
// in that case every call fails and the caller surfaces a retryable
// error without touching local state.
type Client struct {
	apiKey string
	model  string
}

// New creates a Gemini-backed collaborator.
func New(apiKey, model string) *Client {
	return &Client{apiKey: apiKey, model: model}
}

// responseSchema constrains the model to the proposed-session record
// array the import adapter expects.
func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"dayOffset": {Type: genai.TypeInteger, Description: "0 for start date, 1 for next day, etc."},
				"startTime": {Type: genai.TypeString, Description: "HH:mm 24-hour format"},
				"endTime":   {Type: genai.TypeString, Description: "HH:mm 24-hour format"},
				"subjectId": {Type: genai.TypeString, Description: "ID of the subject from provided list"},
				"topicIds": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "Array of topic IDs covered in this session",
				},
				"type":      {Type: genai.TypeString, Enum: []string{"New", "Revision", "Practice"}},
				"reasoning": {Type: genai.TypeString, Description: "Short reason for this slot (e.g. 'Revision for upcoming Midterm')"},
			},
			Required: []string{"dayOffset", "startTime", "endTime", "subjectId", "topicIds", "type"},
		},
	}
}

func (c *Client) newClient(ctx context.Context) (*genai.Client, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return client, nil
}

// ProposePlan sends the planning prompt and decodes the JSON proposal.
func (c *Client) ProposePlan(ctx context.Context, req planner.Request) ([]planner.ProposedSession, error) {
	client, err := c.newClient(ctx)
	if err != nil {
		return nil, err
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: generate plan: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return []planner.ProposedSession{}, nil
	}
	var records []planner.ProposedSession
	if err := json.Unmarshal([]byte(text), &records); err != nil {
		return nil, fmt.Errorf("gemini: decode plan response: %w", err)
	}
	return records, nil
}

// MotivationalQuote asks for a short affirmation. Failures are returned
// as-is; the plan service substitutes a static fallback.
func (c *Client) MotivationalQuote(ctx context.Context) (string, error) {
	client, err := c.newClient(ctx)
	if err != nil {
		return "", err
	}
	resp, err := client.Models.GenerateContent(ctx, c.model,
		genai.Text("Give me a very short, punchy, unique motivational quote for a university student studying hard. Max 15 words."),
		nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate quote: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: empty quote response")
	}
	return text, nil
}

// buildPrompt renders the planning prompt with the full constraint set.
func buildPrompt(req planner.Request) (string, error) {
	busy, err := json.Marshal(req.BusyBlocks)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal busy blocks: %w", err)
	}
	exams, err := json.Marshal(req.Exams)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal exams: %w", err)
	}
	subjects, err := json.Marshal(req.Subjects)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal subjects: %w", err)
	}

	return fmt.Sprintf(`You are an expert university study planner. Create a %d-day study schedule starting from %s.

My Constraints:
1. I can study max %d hours per day.
2. I prefer studying between %d:00 and %d:00.
3. I strictly cannot study during these busy blocks: %s.
4. Prioritize subjects with upcoming exams: %s.
5. Subjects and Topics Data: %s.

Planning Strategy:
1. **Topic Completion Status**:
   - Explicitly check the 'completed' field for each topic.
   - Schedule 'New' sessions for topics where 'completed' is false.
   - Schedule 'Revision' sessions for topics where 'completed' is true (especially for subjects with near exams).
2. **Subject Balancing**:
   - Do not bias the schedule towards subjects simply because they have more topics.
   - Ensure subjects with FEWER topics but high difficulty or imminent exams receive adequate attention and revision slots.
   - Distribute time fairly based on priority, not just list length.
3. **Session Rules**:
   - Max block duration: 90 mins.
   - No breaks in output, only study slots.
   - Respect busy blocks strictly.

Return a JSON array of study sessions.`,
		req.Days,
		req.StartDate.Format("Mon Jan 02 2006"),
		req.Preferences.MaxHoursPerDay,
		req.Preferences.PreferredStartHour,
		req.Preferences.PreferredEndHour,
		busy, exams, subjects), nil
}
