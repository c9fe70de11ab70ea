package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"voicecast/internal/analysis"
	"voicecast/internal/inference"
	"voicecast/internal/logging"
	"voicecast/internal/stage"
	"voicecast/internal/testsupport"
)

const (
	riverParagraph = "Alice sat by the river. Harry Potter waved."
	laughParagraph = "Harry laughed. Mr. Dursley frowned."
)

func bySegment(replies map[string]string) testsupport.Reply {
	return func(_, user string) (string, error) {
		for marker, reply := range replies {
			if strings.Contains(user, marker) {
				return reply, nil
			}
		}
		return `{"characters": []}`, nil
	}
}

func TestCharacterExtractionMergesAcrossSegments(t *testing.T) {
	llm := testsupport.NewFakeLLM().On(CharacterSystemPrompt, bySegment(map[string]string{
		"Alice sat": `{"characters":[{"name":"Alice","traits":["young","Curious"]},{"name":"Harry Potter","traits":"male"}]}`,
		"Harry laughed": "Sure:\n" + `{"characters":["Harry",{"name":"Mr. Dursley","traits":[]},{"name":"narrator"}]}`,
	}))
	in := analysis.NewContext(1, 1, "fp", []string{riverParagraph, laughParagraph})

	var reports [][2]int
	progress := func(cur, total int) { reports = append(reports, [2]int{cur, total}) }
	out, err := NewCharacterExtraction(logging.NewNop()).Execute(context.Background(), llm, in, stage.Config{MaxSegmentChars: 50}, progress)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(in.Characters) != 0 {
		t.Fatal("input context must not be modified")
	}
	if got := out.CharacterKeys(); strings.Join(got, ",") != "alice,harry potter,mr dursley" {
		t.Fatalf("unexpected characters %v", got)
	}
	harry := out.Characters["harry potter"]
	if harry.Name != "Harry Potter" {
		t.Fatalf("first display name must be kept, got %q", harry.Name)
	}
	if pages := harry.SortedPages(); len(pages) != 2 || pages[0] != 0 || pages[1] != 1 {
		t.Fatalf("unexpected pages for harry %v", pages)
	}
	if traits := out.Characters["alice"].SortedTraits(); len(traits) != 2 || traits[0] != "curious" {
		t.Fatalf("unexpected traits %v", traits)
	}
	if out.ParagraphsProcessed != 2 {
		t.Fatalf("expected 2 paragraphs processed, got %d", out.ParagraphsProcessed)
	}
	if llm.CallsWithSystem(CharacterSystemPrompt) != 2 {
		t.Fatalf("expected one call per segment, got %d", llm.CallsWithSystem(CharacterSystemPrompt))
	}
	want := [][2]int{{0, 2}, {1, 2}, {2, 2}}
	if len(reports) != len(want) {
		t.Fatalf("unexpected progress %v", reports)
	}
	for i := range want {
		if reports[i] != want[i] {
			t.Fatalf("unexpected progress %v", reports)
		}
	}
	second := llm.Calls()[1].User
	if !strings.Contains(second, `"Alice"`) || !strings.Contains(second, `"Harry Potter"`) {
		t.Fatalf("later prompts must list known characters:\n%s", second)
	}
}

func TestCharacterPromptListsUntraitedNamesOnlyForBackfill(t *testing.T) {
	llm := testsupport.NewFakeLLM().On(CharacterSystemPrompt, bySegment(map[string]string{
		"Alice sat": `{"characters":[{"name":"Alice","traits":["young"]},{"name":"Mr. Dursley","traits":[]}]}`,
	}))
	in := analysis.NewContext(1, 1, "fp", []string{riverParagraph, laughParagraph})
	if _, err := NewCharacterExtraction(logging.NewNop()).Execute(context.Background(), llm, in, stage.Config{MaxSegmentChars: 50}, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	calls := llm.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	var skipLine, backfillLine string
	for line := range strings.SplitSeq(calls[1].User, "\n") {
		switch {
		case strings.HasPrefix(line, "ALREADY KNOWN"):
			skipLine = line
		case strings.HasPrefix(line, "KNOWN BUT MISSING TRAITS"):
			backfillLine = line
		}
	}
	if !strings.Contains(skipLine, `"Alice"`) || strings.Contains(skipLine, "Dursley") {
		t.Fatalf("skip list must hold only traited names: %q", skipLine)
	}
	if !strings.Contains(backfillLine, `"Mr. Dursley"`) || strings.Contains(backfillLine, "Alice") {
		t.Fatalf("backfill list must hold only untraited names: %q", backfillLine)
	}
}

func TestCharacterExtractionRecoversFromEmptyReplies(t *testing.T) {
	llm := testsupport.NewFakeLLM().On(CharacterSystemPrompt, func(_, user string) (string, error) {
		if strings.Contains(user, "Alice sat") {
			return "", inference.ErrEmptyResponse
		}
		return "I could not find anyone.", nil
	})
	in := analysis.NewContext(1, 1, "fp", []string{riverParagraph, laughParagraph})
	out, err := NewCharacterExtraction(logging.NewNop()).Execute(context.Background(), llm, in, stage.Config{MaxSegmentChars: 50}, nil)
	if err != nil {
		t.Fatalf("empty replies must not fail the stage: %v", err)
	}
	if len(out.Characters) != 0 || out.ParagraphsProcessed != 2 {
		t.Fatalf("unexpected result %+v", out)
	}
}

func TestCharacterExtractionFailsOnInferenceError(t *testing.T) {
	boom := errors.New("boom")
	llm := testsupport.NewFakeLLM().On(CharacterSystemPrompt, testsupport.Fail(boom))
	in := analysis.NewContext(1, 1, "fp", []string{riverParagraph})
	out, err := NewCharacterExtraction(logging.NewNop()).Execute(context.Background(), llm, in, stage.Config{}, nil)
	if !errors.Is(err, boom) || out != nil {
		t.Fatalf("expected wrapped boom and no context, got %v %v", out, err)
	}
}

func TestStagesHonorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	llm := testsupport.NewFakeLLM().Otherwise(testsupport.Static(`{}`))
	in := analysis.NewContext(1, 1, "fp", []string{riverParagraph})
	in.Characters["alice"] = analysis.NewCharacter("Alice", "alice")
	for _, s := range Stages(logging.NewNop()) {
		if _, err := s.Execute(ctx, llm, in, stage.Config{}, nil); !errors.Is(err, context.Canceled) {
			t.Fatalf("%s: expected context.Canceled, got %v", s.Name(), err)
		}
	}
	if len(llm.Calls()) != 0 {
		t.Fatalf("cancelled stages must not call the model, got %d calls", len(llm.Calls()))
	}
}

func TestResolveCharacterKeepsFamiliesApart(t *testing.T) {
	ac := analysis.NewContext(1, 1, "fp", nil)
	ac.Characters["ron weasley"] = analysis.NewCharacter("Ron Weasley", "ron weasley")
	if got := resolveCharacter(ac, "Weasley"); got != "ron weasley" {
		t.Fatalf("surname alone should join the only Weasley, got %q", got)
	}
	if got := resolveCharacter(ac, "Ginny Weasley"); got != "" {
		t.Fatalf("a different first name must not merge, got %q", got)
	}
	ac.Characters["ginny weasley"] = analysis.NewCharacter("Ginny Weasley", "ginny weasley")
	if got := resolveCharacter(ac, "Weasley"); got != "" {
		t.Fatalf("an ambiguous surname must not merge, got %q", got)
	}
	if got := resolveCharacter(ac, "RON WEASLEY"); got != "ron weasley" {
		t.Fatalf("exact canonical match expected, got %q", got)
	}
	if got := resolveCharacter(ac, "unknown"); got != "" {
		t.Fatalf("unknown must never resolve, got %q", got)
	}
}

func TestDialogExtractionAttributesAndNormalizes(t *testing.T) {
	reply := `{"dialogs":[
		{"speaker":"Alice","text":"I'm late","emotion":"Worried","intensity":2},
		{"speaker":"Harry","text":"Wait!","emotion":"shocked"},
		{"speaker":"unknown","text":"Who's there?","emotion":"fear","intensity":0.4},
		{"speaker":"Alice","text":"   "}
	]}`
	llm := testsupport.NewFakeLLM().On(DialogSystemPrompt, testsupport.Static(reply))
	in := analysis.NewContext(1, 1, "fp", []string{`"I'm late," said Alice.`, `"Wait!" cried Harry.`})
	in.Characters["alice"] = analysis.NewCharacter("Alice", "alice")
	in.Characters["harry potter"] = analysis.NewCharacter("Harry Potter", "harry potter")

	out, err := NewDialogExtraction(logging.NewNop()).Execute(context.Background(), llm, in, stage.Config{}, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.TotalDialogs != 3 {
		t.Fatalf("expected 3 dialogs counted, got %d", out.TotalDialogs)
	}
	if out.DialogCount() != 2 {
		t.Fatalf("expected 2 attributed dialogs, got %d", out.DialogCount())
	}
	alice := out.Characters["alice"].Dialogs
	if len(alice) != 1 || alice[0].Page != 0 || alice[0].Emotion != "worried" || alice[0].Intensity != 1 {
		t.Fatalf("unexpected alice dialog %+v", alice)
	}
	harry := out.Characters["harry potter"].Dialogs
	if len(harry) != 1 || harry[0].Page != 1 || harry[0].Emotion != "surprised" || harry[0].Intensity != 0.5 {
		t.Fatalf("unexpected harry dialog %+v", harry)
	}
	if len(in.Characters["alice"].Dialogs) != 0 {
		t.Fatal("input context must not be modified")
	}
	if !strings.Contains(llm.Calls()[0].User, `"Harry Potter"`) {
		t.Fatal("dialog prompt must list known characters")
	}
}

func TestNormalizeEmotion(t *testing.T) {
	cases := map[string]string{"Happy": "happy", " anxious ": "worried", "bored": "neutral", "": "neutral"}
	for in, want := range cases {
		if got := NormalizeEmotion(in); got != want {
			t.Fatalf("NormalizeEmotion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVoiceProfileAssignment(t *testing.T) {
	llm := testsupport.NewFakeLLM().On(VoiceSystemPrompt, func(_, user string) (string, error) {
		if strings.Contains(user, `CHARACTER: "Alice"`) {
			return `{"character":"Alice","traits":["british"],"voice_profile":{"pitch":2.0,"energy":"0.8","gender":"Female","age":"Young","tone":"bright","speaker_id":12,"emotion_bias":{"Happy":0.3,"sad":"x"}}}`, nil
		}
		return "no idea", nil
	})
	in := analysis.NewContext(1, 1, "fp", nil)
	alice := analysis.NewCharacter("Alice", "alice")
	alice.AddTraits("young")
	alice.Dialogs = append(alice.Dialogs, analysis.DialogLine{Text: "I'm late"})
	in.Characters["alice"] = alice
	in.Characters["bob"] = analysis.NewCharacter("Bob", "bob")

	out, err := NewVoiceProfileAssignment(logging.NewNop()).Execute(context.Background(), llm, in, stage.Config{}, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if llm.CallsWithSystem(VoiceSystemPrompt) != 2 {
		t.Fatalf("expected one call per character, got %d", llm.CallsWithSystem(VoiceSystemPrompt))
	}
	a := out.Characters["alice"]
	p := a.VoiceProfile
	if p == nil || p.Pitch != analysis.MaxVoiceScale || p.Speed != 1.0 || p.Energy != 0.8 {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p.Gender != "female" || p.Age != "young" || p.Tone != "bright" {
		t.Fatalf("unexpected descriptors %+v", p)
	}
	if len(p.EmotionBias) != 1 || p.EmotionBias["happy"] != 0.3 {
		t.Fatalf("unexpected emotion bias %v", p.EmotionBias)
	}
	if a.SpeakerID == nil || *a.SpeakerID != 12 {
		t.Fatalf("expected speaker hint 12, got %v", a.SpeakerID)
	}
	if _, ok := a.Traits["british"]; !ok {
		t.Fatalf("returned traits must merge, got %v", a.SortedTraits())
	}
	if !strings.Contains(llm.Calls()[0].User, "I'm late") {
		t.Fatal("voice prompt must include dialog samples")
	}
	bob := out.Characters["bob"]
	if bob.VoiceProfile == nil || bob.VoiceProfile.Tone != "neutral" || bob.VoiceProfile.Pitch != 1.0 || bob.SpeakerID != nil {
		t.Fatalf("unusable reply must assign the default profile, got %+v", bob.VoiceProfile)
	}
}

func TestParseVoiceReplyAcceptsFlatProfile(t *testing.T) {
	reply, err := parseVoiceReply(`{"pitch": 0.8, "gender": "F", "speaker_id": "7"}`)
	if err != nil {
		t.Fatalf("parseVoiceReply: %v", err)
	}
	p := reply.Profile.profile()
	if p.Pitch != 0.8 || p.Gender != "female" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if id := reply.Profile.speakerHint(); id == nil || *id != 7 {
		t.Fatalf("unexpected hint %v", id)
	}
	if _, err := parseVoiceReply(`{"character": "Bob"}`); !errors.Is(err, errNoProfile) {
		t.Fatalf("expected errNoProfile, got %v", err)
	}
	bad, err := parseVoiceReply(`{"voice_profile": {"speaker_id": -3}}`)
	if err != nil {
		t.Fatalf("parseVoiceReply: %v", err)
	}
	if bad.Profile.speakerHint() != nil {
		t.Fatal("negative speaker ids must be ignored")
	}
}
