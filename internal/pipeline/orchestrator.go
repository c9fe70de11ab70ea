package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"voicecast/internal/analysis"
	"voicecast/internal/checkpoint"
	"voicecast/internal/config"
	"voicecast/internal/extraction"
	"voicecast/internal/inference"
	"voicecast/internal/logging"
	"voicecast/internal/services"
	"voicecast/internal/speakers"
	"voicecast/internal/stage"
	"voicecast/internal/textutil"
)

const checkpointSaveTimeout = 30 * time.Second

// Orchestrator runs the stage list for one chapter at a time. It holds no
// per-run state, so concurrent Run calls on distinct chapters are safe.
type Orchestrator struct {
	client  inference.Client
	store   *checkpoint.Store
	matcher *speakers.Matcher
	stages  []stage.Stage
	configs map[string]stage.Config
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithStages replaces the default stage list.
func WithStages(stages ...stage.Stage) Option {
	return func(o *Orchestrator) {
		if len(stages) > 0 {
			o.stages = stages
		}
	}
}

// WithStageConfig sets the generation budget for the stage named name.
func WithStageConfig(name string, cfg stage.Config) Option {
	return func(o *Orchestrator) {
		o.configs[name] = cfg
	}
}

// WithConfig applies the per-stage budgets from the application config.
func WithConfig(cfg *config.Config) Option {
	return func(o *Orchestrator) {
		if cfg == nil {
			return
		}
		for name, s := range map[string]config.StageSettings{
			extraction.CharacterStageName: cfg.CharacterStage(),
			extraction.DialogStageName:    cfg.DialogStage(),
			extraction.VoiceStageName:     cfg.VoiceStage(),
		} {
			o.configs[name] = stage.Config{MaxTokens: s.MaxTokens, Temperature: s.Temperature, MaxSegmentChars: s.MaxSegmentChars}
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source used for durations.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New wires an orchestrator. The catalog used for casting is the matcher's.
func New(client inference.Client, store *checkpoint.Store, matcher *speakers.Matcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:  client,
		store:   store,
		matcher: matcher,
		configs: map[string]stage.Config{},
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "pipeline")
	if len(o.stages) == 0 {
		o.stages = extraction.Stages(o.logger)
	}
	return o
}

// StageNames lists the configured stages in execution order.
func (o *Orchestrator) StageNames() []string {
	names := make([]string, len(o.stages))
	for i, s := range o.stages {
		names[i] = s.Name()
	}
	return names
}

func (o *Orchestrator) configFor(name string) stage.Config {
	cfg := o.configs[name]
	if cfg.MaxSegmentChars <= 0 {
		cfg.MaxSegmentChars = extraction.DefaultMaxSegmentChars
	}
	return cfg
}

// Run analyzes one chapter. It resumes from a valid checkpoint, saves a
// checkpoint after every non-final stage and deletes it on completion. It
// never returns an error; see Result.Status.
func (o *Orchestrator) Run(ctx context.Context, req Request) (res Result) {
	start := o.now()
	taskID := uuid.NewString()
	ctx = services.WithDocument(ctx, req.OwnerID, req.SubID)
	ctx = services.WithRequestID(ctx, taskID)
	logger := logging.WithContext(ctx, o.logger)
	tracker := newProgressTracker(taskID, len(o.stages), req.OnProgress)

	res = Result{TaskID: taskID, OwnerID: req.OwnerID, SubID: req.SubID}
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("pipeline panic: %v", r)
			logging.ErrorWithContext(logger, "pipeline panicked", "pipeline_panic",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "report this failure with the log file attached"),
			)
			res.Status = StatusFailed
			res.Err = err
			res.Message = err.Error()
		}
		res.Duration = o.now().Sub(start)
	}()

	if err := textutil.ValidateParagraphs(req.Paragraphs); err != nil {
		return o.failed(logger, res, "", services.Wrap(services.ErrValidation, "pipeline", "validate input", err.Error(), nil))
	}

	fingerprint := textutil.ContentFingerprint(req.Paragraphs)
	ac, resume := o.restore(ctx, logger, req, fingerprint)
	res.ResumedFrom = resume
	res.Context = ac
	if resume > 0 {
		tracker.resume(resume, o.stages[resume].DisplayName())
	}

	logger.Info("analysis started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("paragraphs", len(req.Paragraphs)),
		logging.Int("resume_stage", resume),
		logging.String("fingerprint", fingerprint),
	)

	for i := resume; i < len(o.stages); i++ {
		st := o.stages[i]
		if ctx.Err() != nil {
			return o.cancelled(logger, res, tracker, st.Name())
		}
		stageCtx := services.WithStage(ctx, st.Name())
		stageLogger := logging.WithContext(stageCtx, o.logger)
		stageStart := o.now()
		stageLogger.Info("stage started",
			logging.String(logging.FieldEventType, "stage_start"),
			logging.Int("step", i+1),
			logging.Int("steps", len(o.stages)),
		)

		next, err := st.Execute(stageCtx, o.client, ac, o.configFor(st.Name()), tracker.stage(i, st.DisplayName()))
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return o.cancelled(stageLogger, res, tracker, st.Name())
			}
			return o.failed(stageLogger, res, st.DisplayName(), err)
		}
		if next == nil {
			return o.failed(stageLogger, res, st.DisplayName(), fmt.Errorf("%s returned no result", st.Name()))
		}
		ac = next
		res.Context = ac

		if i < len(o.stages)-1 {
			// A completed stage is persisted even when cancellation arrived
			// with its last reply.
			saveCtx, cancelSave := context.WithTimeout(context.WithoutCancel(stageCtx), checkpointSaveTimeout)
			err := o.store.Save(saveCtx, ac, i)
			cancelSave()
			if err != nil {
				logging.WarnWithContext(stageLogger, "checkpoint save failed; run continues", "checkpoint_save_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check permissions on the checkpoint directory"),
					logging.String(logging.FieldImpact, "an interrupted run will repeat this stage"),
				)
			}
		}
		o.notifyStep(stageLogger, req.OnStepCompleted, i, st.Name(), ac)
		stageLogger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Int("characters", len(ac.Characters)),
			logging.Int("dialogs", ac.TotalDialogs),
			logging.Duration("stage_duration", o.now().Sub(stageStart)),
		)
	}

	o.assignSpeakers(logger, ac)
	if err := o.store.Delete(ctx, req.OwnerID, req.SubID); err != nil {
		logging.WarnWithContext(logger, "checkpoint cleanup failed", "checkpoint_delete_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove it with 'voicecast checkpoint delete'"),
			logging.String(logging.FieldImpact, "the next run of this chapter discards it by fingerprint or age"),
		)
	}

	res.Status = StatusCompleted
	res.CharacterCount = len(ac.Characters)
	res.DialogCount = ac.TotalDialogs
	res.Message = fmt.Sprintf("found %d characters and %d dialogs", res.CharacterCount, res.DialogCount)
	tracker.done(len(o.stages)-1, "Analysis complete")
	logger.Info("analysis completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("characters", res.CharacterCount),
		logging.Int("dialogs", res.DialogCount),
		logging.Duration("duration", o.now().Sub(start)),
	)
	return res
}

// restore returns the context to start from and the first stage to run.
func (o *Orchestrator) restore(ctx context.Context, logger *slog.Logger, req Request, fingerprint string) (*analysis.Context, int) {
	fresh := analysis.NewContext(req.OwnerID, req.SubID, fingerprint, req.Paragraphs)
	cp, ok := o.store.Load(ctx, req.OwnerID, req.SubID, fingerprint)
	if !ok {
		return fresh, 0
	}
	resume := cp.LastCompletedStep + 1
	if resume <= 0 {
		logger.Info("checkpoint records no completed stage; starting over",
			logging.String(logging.FieldEventType, "checkpoint_empty"),
		)
		if err := o.store.Delete(ctx, req.OwnerID, req.SubID); err != nil {
			logger.Debug("empty checkpoint delete failed", logging.Error(err))
		}
		return fresh, 0
	}
	if resume >= len(o.stages) {
		logging.WarnWithContext(logger, "checkpoint covers every stage; starting over", "checkpoint_out_of_range",
			logging.Int("last_completed_step", cp.LastCompletedStep),
			logging.String(logging.FieldErrorHint, "none; the stale checkpoint is removed"),
			logging.String(logging.FieldImpact, "the chapter is analyzed from the first stage"),
		)
		if err := o.store.Delete(ctx, req.OwnerID, req.SubID); err != nil {
			logger.Debug("stale checkpoint delete failed", logging.Error(err))
		}
		return fresh, 0
	}
	ac := cp.Restore(req.Paragraphs)
	attrs := logging.DecisionAttrs("checkpoint_resume", "resume", fmt.Sprintf("valid checkpoint after %s", o.stages[cp.LastCompletedStep].Name()))
	attrs = append(attrs,
		logging.String(logging.FieldEventType, "checkpoint_resume"),
		logging.Int("resume_stage", resume),
		logging.Int("characters", len(ac.Characters)),
	)
	logger.Info("resuming from checkpoint", logging.Args(attrs...)...)
	return ac, resume
}

func (o *Orchestrator) failed(logger *slog.Logger, res Result, stageName string, err error) Result {
	details := services.Details(err)
	res.Status = StatusFailed
	res.Err = err
	res.Message = details.Message
	if stageName != "" {
		res.Message = fmt.Sprintf("%s failed: %s", stageName, details.Message)
	}
	logging.ErrorWithContext(logger, "analysis failed", "run_failed",
		logging.Error(err),
		logging.String("error_kind", details.Kind),
		logging.String(logging.FieldErrorHint, "rerun the chapter; completed stages resume from the checkpoint"),
	)
	return res
}

func (o *Orchestrator) cancelled(logger *slog.Logger, res Result, tracker *progressTracker, stageName string) Result {
	res.Status = StatusCancelled
	res.Message = fmt.Sprintf("cancelled during %s", stageName)
	logger.Info("analysis cancelled",
		logging.String(logging.FieldEventType, "run_cancelled"),
		logging.String(logging.FieldStage, stageName),
		logging.Float64(logging.FieldProgressPercent, tracker.percent()),
	)
	return res
}

// notifyStep runs the step callback, containing its errors and panics.
func (o *Orchestrator) notifyStep(logger *slog.Logger, fn StepCompletedFunc, index int, name string, ac *analysis.Context) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.WarnWithContext(logger, "step callback panicked", "step_callback_panic",
				logging.String("panic", fmt.Sprint(r)),
				logging.String(logging.FieldImpact, "interim results for this step were not recorded"),
			)
		}
	}()
	if err := fn(index, name, ac.Clone().SortedCharacters()); err != nil {
		logging.WarnWithContext(logger, "step callback failed", "step_callback_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "interim results for this step were not recorded"),
		)
	}
}
