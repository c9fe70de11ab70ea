package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"voicecast/internal/analysis"
	"voicecast/internal/checkpoint"
	"voicecast/internal/extraction"
	"voicecast/internal/logging"
	"voicecast/internal/services"
	"voicecast/internal/speakers"
	"voicecast/internal/testsupport"
	"voicecast/internal/textutil"
)

var aliceChapter = []string{
	"Alice wandered into the garden on a bright morning.",
	`"What a lovely day," Alice said with a smile.`,
	"Alice sat beneath the old oak tree and watched the clouds.",
}

const (
	aliceCharacters = `{"characters":[{"name":"Alice","traits":["female","young"]}]}`
	aliceDialogs    = `{"dialogs":[{"speaker":"Alice","text":"What a lovely day","emotion":"happy","intensity":0.8}]}`
	aliceVoice      = `{"character":"Alice","traits":["cheerful"],"voice_profile":{"pitch":1.15,"speed":1.05,"energy":0.9,"gender":"female","age":"young","tone":"bright","accent":"english","speaker_id":20,"emotion_bias":{"happy":0.7}}}`
)

func aliceLLM() *testsupport.FakeLLM {
	return testsupport.NewFakeLLM().
		On(extraction.CharacterSystemPrompt, testsupport.Static(aliceCharacters)).
		On(extraction.DialogSystemPrompt, testsupport.Static(aliceDialogs)).
		On(extraction.VoiceSystemPrompt, testsupport.Static(aliceVoice))
}

func newStore(t *testing.T, dir string) *checkpoint.Store {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	store, err := checkpoint.NewStore(dir, checkpoint.WithLogger(logging.NewNop()))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func newOrchestrator(llm *testsupport.FakeLLM, store *checkpoint.Store) *Orchestrator {
	matcher := speakers.NewMatcher(speakers.NewCatalog(), speakers.WithSeed(42))
	return New(llm, store, matcher, WithLogger(logging.NewNop()))
}

func TestRunAliceEndToEnd(t *testing.T) {
	llm := aliceLLM()
	store := newStore(t, "")
	orch := newOrchestrator(llm, store)

	var (
		mu       sync.Mutex
		percents []float64
		steps    []string
	)
	res := orch.Run(context.Background(), Request{
		OwnerID:    3,
		SubID:      7,
		Paragraphs: aliceChapter,
		OnProgress: func(taskID, _ string, percent float64, current, total int, _ string) {
			mu.Lock()
			defer mu.Unlock()
			if taskID == "" || current < 1 || current > total {
				t.Errorf("bad progress report %q %d/%d", taskID, current, total)
			}
			percents = append(percents, percent)
		},
		OnStepCompleted: func(_ int, name string, chars []*analysis.Character) error {
			steps = append(steps, name)
			return nil
		},
	})

	if res.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s: %s", res.Status, res.Message)
	}
	chars := res.Characters()
	if len(chars) != 1 || chars[0].Name != "Alice" {
		t.Fatalf("expected only Alice, got %+v", chars)
	}
	alice := chars[0]
	if len(alice.Dialogs) != 1 || alice.Dialogs[0].Emotion != "happy" || alice.Dialogs[0].Intensity != 0.8 {
		t.Fatalf("unexpected dialogs %+v", alice.Dialogs)
	}
	if alice.VoiceProfile == nil || alice.VoiceProfile.Pitch != 1.15 {
		t.Fatalf("expected a voice profile, got %+v", alice.VoiceProfile)
	}
	if alice.SpeakerID == nil {
		t.Fatal("expected a speaker assignment")
	}
	voice, ok := speakers.NewCatalog().Lookup(*alice.SpeakerID)
	if !ok || voice.Gender != speakers.Female {
		t.Fatalf("expected a female voice, got %+v", voice)
	}
	if res.CharacterCount != 1 || res.DialogCount != 1 {
		t.Fatalf("unexpected counts %d/%d", res.CharacterCount, res.DialogCount)
	}
	if strings.Join(steps, ",") != "character_extraction,dialog_extraction,voice_profiles" {
		t.Fatalf("unexpected step callbacks %v", steps)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress went backwards: %v", percents)
		}
	}
	if len(percents) == 0 || percents[len(percents)-1] != 100 {
		t.Fatalf("progress must end at 100: %v", percents)
	}
	if _, err := os.Stat(store.Path(3, 7)); !os.IsNotExist(err) {
		t.Fatalf("checkpoint must be deleted after completion, stat err %v", err)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	first := newOrchestrator(aliceLLM(), newStore(t, "")).Run(context.Background(), Request{OwnerID: 1, SubID: 1, Paragraphs: aliceChapter})
	second := newOrchestrator(aliceLLM(), newStore(t, "")).Run(context.Background(), Request{OwnerID: 1, SubID: 1, Paragraphs: aliceChapter})
	if first.CharacterCount != second.CharacterCount || first.DialogCount != second.DialogCount {
		t.Fatalf("runs diverged: %d/%d vs %d/%d", first.CharacterCount, first.DialogCount, second.CharacterCount, second.DialogCount)
	}
	a, b := first.Characters()[0].SpeakerID, second.Characters()[0].SpeakerID
	if a == nil || b == nil || *a != *b {
		t.Fatalf("seeded matchers must cast the same voice: %v vs %v", a, b)
	}
	if first.TaskID == second.TaskID {
		t.Fatal("every run needs its own task id")
	}
}

func TestRunFailureKeepsCheckpointAndResumeSkipsCompletedStages(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("upstream unavailable")
	failing := testsupport.NewFakeLLM().
		On(extraction.CharacterSystemPrompt, testsupport.Static(aliceCharacters)).
		On(extraction.DialogSystemPrompt, testsupport.Fail(boom))

	res := newOrchestrator(failing, newStore(t, dir)).Run(context.Background(), Request{OwnerID: 1, SubID: 2, Paragraphs: aliceChapter})
	if res.Status != StatusFailed || !errors.Is(res.Err, boom) {
		t.Fatalf("expected failure wrapping boom, got %s %v", res.Status, res.Err)
	}
	if !strings.Contains(res.Message, "Dialog extraction failed") {
		t.Fatalf("failure message should name the stage: %q", res.Message)
	}

	store := newStore(t, dir)
	cp, ok := store.Load(context.Background(), 1, 2, textutil.ContentFingerprint(aliceChapter))
	if !ok || cp.LastCompletedStep != 0 {
		t.Fatalf("expected checkpoint after stage 0, got %+v %v", cp, ok)
	}

	llm := aliceLLM()
	res = newOrchestrator(llm, store).Run(context.Background(), Request{OwnerID: 1, SubID: 2, Paragraphs: aliceChapter})
	if res.Status != StatusCompleted || res.ResumedFrom != 1 {
		t.Fatalf("expected completed resume from stage 1, got %s from %d", res.Status, res.ResumedFrom)
	}
	if n := llm.CallsWithSystem(extraction.CharacterSystemPrompt); n != 0 {
		t.Fatalf("resumed run must not repeat character extraction, got %d calls", n)
	}
	if llm.CallsWithSystem(extraction.DialogSystemPrompt) != 1 || llm.CallsWithSystem(extraction.VoiceSystemPrompt) != 1 {
		t.Fatalf("unexpected calls %+v", llm.Calls())
	}
	if res.CharacterCount != 1 || res.DialogCount != 1 {
		t.Fatalf("restored characters lost: %d/%d", res.CharacterCount, res.DialogCount)
	}
}

func TestRunIgnoresCheckpointForDifferentContent(t *testing.T) {
	store := newStore(t, "")
	other := []string{"Bob fixed the fence.", "It rained all afternoon."}
	ac := analysis.NewContext(1, 3, textutil.ContentFingerprint(other), other)
	ac.Characters["bob"] = analysis.NewCharacter("Bob", "bob")
	if err := store.Save(context.Background(), ac, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}

	llm := aliceLLM()
	res := newOrchestrator(llm, store).Run(context.Background(), Request{OwnerID: 1, SubID: 3, Paragraphs: aliceChapter})
	if res.Status != StatusCompleted || res.ResumedFrom != 0 {
		t.Fatalf("expected a fresh run, got %s from %d", res.Status, res.ResumedFrom)
	}
	if llm.CallsWithSystem(extraction.CharacterSystemPrompt) != 1 {
		t.Fatal("stage 0 must run for changed content")
	}
	if _, ok := res.Context.Characters["bob"]; ok {
		t.Fatal("characters from a stale checkpoint leaked into the run")
	}
}

func TestRunRestartsWhenCheckpointCoversEveryStage(t *testing.T) {
	store := newStore(t, "")
	ac := analysis.NewContext(1, 4, textutil.ContentFingerprint(aliceChapter), aliceChapter)
	if err := store.Save(context.Background(), ac, 2); err != nil {
		t.Fatalf("Save: %v", err)
	}
	llm := aliceLLM()
	res := newOrchestrator(llm, store).Run(context.Background(), Request{OwnerID: 1, SubID: 4, Paragraphs: aliceChapter})
	if res.Status != StatusCompleted || res.ResumedFrom != 0 || llm.CallsWithSystem(extraction.CharacterSystemPrompt) != 1 {
		t.Fatalf("expected a restart from stage 0, got %s from %d", res.Status, res.ResumedFrom)
	}
}

func TestRunRestartsWhenCheckpointRecordsNoStage(t *testing.T) {
	store := newStore(t, "")
	fp := textutil.ContentFingerprint(aliceChapter)
	ac := analysis.NewContext(1, 5, fp, aliceChapter)
	if err := store.Save(context.Background(), ac, -1); err != nil {
		t.Fatalf("Save: %v", err)
	}
	llm := aliceLLM()
	res := newOrchestrator(llm, store).Run(context.Background(), Request{OwnerID: 1, SubID: 5, Paragraphs: aliceChapter})
	if res.Status != StatusCompleted || res.ResumedFrom != 0 {
		t.Fatalf("expected a completed run from stage 0, got %s from %d: %s", res.Status, res.ResumedFrom, res.Message)
	}
	if llm.CallsWithSystem(extraction.CharacterSystemPrompt) != 1 {
		t.Fatal("character extraction must run")
	}
	if _, err := os.Stat(store.Path(1, 5)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("checkpoint must be gone after completion, stat err %v", err)
	}
}

// replyThenCancel cancels the run after the wrapped client has produced its
// reply, so the stage still succeeds.
type replyThenCancel struct {
	*testsupport.FakeLLM
	system string
	cancel context.CancelFunc
}

func (r *replyThenCancel) Generate(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	out, err := r.FakeLLM.Generate(ctx, system, user, maxTokens, temperature)
	if system == r.system {
		r.cancel()
	}
	return out, err
}

func TestRunSavesCompletedStageWhenCancelledDuringIt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	llm := aliceLLM()
	client := &replyThenCancel{FakeLLM: llm, system: extraction.CharacterSystemPrompt, cancel: cancel}
	store := newStore(t, "")
	matcher := speakers.NewMatcher(speakers.NewCatalog(), speakers.WithSeed(42))
	res := New(client, store, matcher, WithLogger(logging.NewNop())).Run(ctx, Request{OwnerID: 3, SubID: 1, Paragraphs: aliceChapter})
	if res.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s: %s", res.Status, res.Message)
	}
	if llm.CallsWithSystem(extraction.DialogSystemPrompt) != 0 {
		t.Fatal("dialog extraction must not start after cancellation")
	}
	cp, ok := store.Load(context.Background(), 3, 1, textutil.ContentFingerprint(aliceChapter))
	if !ok {
		t.Fatal("checkpoint for the completed stage must be written")
	}
	if cp.LastCompletedStep != 0 || len(cp.Characters) != 1 {
		t.Fatalf("unexpected checkpoint: step %d, %d characters", cp.LastCompletedStep, len(cp.Characters))
	}
}

func TestRunCancellationKeepsCheckpoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	llm := aliceLLM().OnCall(func(c testsupport.Call) {
		if c.System == extraction.DialogSystemPrompt {
			cancel()
		}
	})
	store := newStore(t, "")
	res := newOrchestrator(llm, store).Run(ctx, Request{OwnerID: 2, SubID: 1, Paragraphs: aliceChapter})
	if res.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s: %s", res.Status, res.Message)
	}
	if res.Err != nil {
		t.Fatalf("cancellation is not an error, got %v", res.Err)
	}
	if llm.CallsWithSystem(extraction.VoiceSystemPrompt) != 0 {
		t.Fatal("no stage may start after cancellation")
	}
	if _, ok := store.Load(context.Background(), 2, 1, textutil.ContentFingerprint(aliceChapter)); !ok {
		t.Fatal("checkpoint from the completed stage must survive cancellation")
	}
}

func TestRunRejectsInvalidUTF8(t *testing.T) {
	llm := aliceLLM()
	res := newOrchestrator(llm, newStore(t, "")).Run(context.Background(), Request{OwnerID: 1, SubID: 1, Paragraphs: []string{"ok", "bad \xff"}})
	if res.Status != StatusFailed || !errors.Is(res.Err, services.ErrValidation) {
		t.Fatalf("expected validation failure, got %s %v", res.Status, res.Err)
	}
	if len(llm.Calls()) != 0 {
		t.Fatal("invalid input must not reach the model")
	}
}

func TestRunContainsCallbackFailures(t *testing.T) {
	calls := 0
	res := newOrchestrator(aliceLLM(), newStore(t, "")).Run(context.Background(), Request{
		OwnerID:    1,
		SubID:      1,
		Paragraphs: aliceChapter,
		OnStepCompleted: func(index int, _ string, _ []*analysis.Character) error {
			calls++
			if index == 0 {
				panic("host bug")
			}
			return errors.New("disk full")
		},
	})
	if res.Status != StatusCompleted || calls != 3 {
		t.Fatalf("callback failures must not stop the run: %s after %d calls", res.Status, calls)
	}
}

func TestAssignSpeakersFallbacks(t *testing.T) {
	orch := newOrchestrator(testsupport.NewFakeLLM(), newStore(t, ""))
	ac := analysis.NewContext(1, 1, "fp", nil)

	hinted := analysis.NewCharacter("Stranger", "stranger")
	hinted.AddTraits("mysterious")
	hint := 42
	hinted.SpeakerID = &hint
	ac.Characters["stranger"] = hinted

	bogus := analysis.NewCharacter("Ghost", "ghost")
	bad := 500
	bogus.SpeakerID = &bad
	ac.Characters["ghost"] = bogus

	matched := analysis.NewCharacter("Moira", "moira")
	matched.AddTraits("woman", "scottish")
	matched.SpeakerID = &hint
	ac.Characters["moira"] = matched

	orch.assignSpeakers(logging.NewNop(), ac)

	if *hinted.SpeakerID != 42 {
		t.Fatalf("hint should apply without a trait preference, got %d", *hinted.SpeakerID)
	}
	if *bogus.SpeakerID != speakers.NewCatalog().Default("").ID {
		t.Fatalf("invalid hint should fall back to the narrator, got %d", *bogus.SpeakerID)
	}
	voice, _ := speakers.NewCatalog().Lookup(*matched.SpeakerID)
	if voice.Gender != speakers.Female || voice.Accent != "Scottish" {
		t.Fatalf("trait match must win over the hint, got %+v", voice)
	}
}

func TestRunBatch(t *testing.T) {
	llm := aliceLLM()
	orch := newOrchestrator(llm, newStore(t, ""))
	var reqs []Request
	for sub := int64(1); sub <= 4; sub++ {
		reqs = append(reqs, Request{OwnerID: 9, SubID: sub, Paragraphs: aliceChapter})
	}
	results := orch.RunBatch(context.Background(), reqs, 2)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Status != StatusCompleted || res.SubID != int64(i+1) {
			t.Fatalf("result %d: %s for chapter %d", i, res.Status, res.SubID)
		}
	}
	if llm.CallsWithSystem(extraction.CharacterSystemPrompt) != 4 {
		t.Fatalf("expected one character call per chapter, got %d", llm.CallsWithSystem(extraction.CharacterSystemPrompt))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, res := range orch.RunBatch(ctx, reqs, 2) {
		if res.Status != StatusCancelled {
			t.Fatalf("expected cancelled results, got %s", res.Status)
		}
	}
}
