package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"fauxpas-eval/internal/judge"
)

type userResp struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type answerOut struct {
	QuestionID int64  `json:"questionId"`
	Order      int    `json:"orderInStory"`
	AnswerText string `json:"answerText"`
	Evaluation *int   `json:"evaluation"`
}

// smokeAnswers answers the first story of data/stories.json (question ids
// 1..8 on a fresh database) the way a subject who spotted the faux pas would.
var smokeAnswers = []map[string]any{
	{"questionId": 1, "answerText": "Yes"},
	{"questionId": 2, "answerText": "Sarah"},
	{"questionId": 3, "answerText": "The party was meant to be a surprise for Helen."},
	{"questionId": 4, "answerText": "She forgot the party was a secret."},
	{"questionId": 5, "answerText": "No"},
	{"questionId": 6, "answerText": "Surprised;Confused"},
	{"questionId": 7, "answerText": "Helen"},
	{"questionId": 8, "answerText": "Coffee"},
}

func main() {
	base := envOr("API_BASE_URL", "http://localhost:8080")
	token := envOr("API_TOKEN", "dev-secret-token")

	baseFlag := flag.String("base", base, "API base URL (e.g., http://localhost:8080)")
	tokenFlag := flag.String("token", token, "API token")
	testJudge := flag.Bool("test-judge", false, "Ping and query the configured judge directly")
	flag.Parse()

	// If testing the judge directly, skip the API calls
	if *testJudge {
		testJudgeDirectly()
		return
	}

	httpc := &http.Client{Timeout: 60 * time.Second}

	// 1) Create user
	var user userResp
	username := fmt.Sprintf("smoke-%d", time.Now().UnixNano())
	if err := postJSON(httpc, *baseFlag+"/users", *tokenFlag, map[string]any{"username": username}, &user); err != nil {
		fatalf("create user: %v", err)
	}
	fmt.Printf("✅ Created user: id=%d username=%s\n", user.ID, user.Username)

	// 2) Save answers
	for _, a := range smokeAnswers {
		body := map[string]any{"userId": user.ID, "questionId": a["questionId"], "answerText": a["answerText"]}
		if err := postJSON(httpc, *baseFlag+"/answers", *tokenFlag, body, nil); err != nil {
			fatalf("save answer %v: %v", a["questionId"], err)
		}
	}
	fmt.Printf("✅ Saved %d answers\n", len(smokeAnswers))

	// 3) Evaluate and score synchronously
	var final map[string]any
	if err := postJSON(httpc, fmt.Sprintf("%s/users/%d/calculate-scores", *baseFlag, user.ID), *tokenFlag, nil, &final); err != nil {
		fatalf("calculate scores: %v", err)
	}
	fmt.Printf("✅ Calculated scores:\n%s\n", compactJSON(final))

	// 4) Read back evaluations and the aggregate
	var answers []answerOut
	if err := getJSON(httpc, fmt.Sprintf("%s/users/%d/answers", *baseFlag, user.ID), *tokenFlag, &answers); err != nil {
		fatalf("list answers: %v", err)
	}
	for _, a := range answers {
		ev := "null"
		if a.Evaluation != nil {
			ev = fmt.Sprint(*a.Evaluation)
		}
		fmt.Printf("  Q%d %-12q -> %s\n", a.Order, a.AnswerText, ev)
	}
	var scores map[string]any
	if err := getJSON(httpc, fmt.Sprintf("%s/users/%d/scores", *baseFlag, user.ID), *tokenFlag, &scores); err != nil {
		fatalf("get scores: %v", err)
	}
	if scores["validStoriesCount"] != final["validStoriesCount"] {
		fatalf("scores drifted between calls: %v vs %v", scores["validStoriesCount"], final["validStoriesCount"])
	}

	fmt.Printf("🎉 Smoke run OK. UserID=%d\n", user.ID)
}

// --- helpers ---

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func postJSON(c *http.Client, url, bearer string, body any, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, r)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := c.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("POST %s -> %d: %s", url, res.StatusCode, string(b))
	}
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}

func getJSON(c *http.Client, url, bearer string, out any) error {
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := c.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("GET %s -> %d: %s", url, res.StatusCode, string(b))
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func compactJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func fatalf(format string, args ...any) {
	fmt.Printf("❌ "+format+"\n", args...)
	os.Exit(1)
}

// testJudgeDirectly builds the judge from JUDGE_* env vars and asks it about
// one obvious answer.
func testJudgeDirectly() {
	ctx := context.Background()

	fmt.Println("🧪 Testing the judge directly...")

	var cfg judge.Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "JUDGE_"}); err != nil {
		fatalf("judge config: %v", err)
	}
	// one attempt keeps failures visible
	cfg.MaxAttempts = 1
	j, err := judge.New(cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		fatalf("build judge: %v", err)
	}
	if p, ok := j.(judge.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			fatalf("judge ping: %v", err)
		}
		fmt.Println("  ✅ Ping OK")
	}

	v, err := j.Judge(ctx, judge.Request{
		Story: "Anne had just hung new curtains. Her friend Sarah came over and said: " +
			"\"Those curtains are horrible, I hope you're going to get some new ones.\"",
		Question: "What did Sarah say that she should not have said?",
		Answer:   "That the curtains were horrible.",
	})
	if err != nil {
		fatalf("judge call: %v", err)
	}

	fmt.Printf("\n📊 Verdict:\n")
	fmt.Printf("  🔢 Score: %d\n", v.Score)
	fmt.Printf("  📈 Confidence: %.2f\n", v.Confidence)
	if v.Correct() {
		fmt.Println("🎉 The judge accepted the answer.")
	} else {
		fmt.Println("❌ The judge rejected an obviously correct answer.")
	}
}
