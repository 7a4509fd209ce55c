package drapto

import (
	"log/slog"

	draptolib "github.com/five82/drapto"

	"mediasweep/internal/logging"
)

// logReporter forwards Drapto Reporter callbacks to a logger. Progress goes
// to debug so the run's console stays readable at info.
type logReporter struct {
	logger *slog.Logger
}

func newLogReporter(logger *slog.Logger) *logReporter {
	return &logReporter{logger: logger}
}

func (r *logReporter) Hardware(s draptolib.HardwareSummary) {
	r.logger.Debug("drapto hardware", logging.Any("hostname", s.Hostname))
}

func (r *logReporter) Initialization(s draptolib.InitializationSummary) {
	r.logger.Debug("drapto initialized",
		logging.Any("input", s.InputFile),
		logging.Any("resolution", s.Resolution),
		logging.Any("dynamic_range", s.DynamicRange),
	)
}

func (r *logReporter) StageProgress(s draptolib.StageProgress) {
	r.logger.Debug("drapto stage",
		logging.Any("stage", s.Stage),
		logging.Float64("percent", float64(s.Percent)),
		logging.Any("message", s.Message),
	)
}

func (r *logReporter) CropResult(s draptolib.CropSummary) {
	r.logger.Debug("drapto crop", logging.Any("crop", s.Crop), logging.Any("required", s.Required))
}

func (r *logReporter) EncodingConfig(s draptolib.EncodingConfigSummary) {
	r.logger.Debug("drapto encoding config",
		logging.Any("encoder", s.Encoder),
		logging.Any("preset", s.Preset),
		logging.Any("quality", s.Quality),
		logging.Any("audio_codec", s.AudioCodec),
	)
}

func (r *logReporter) EncodingStarted(totalFrames uint64) {
	r.logger.Debug("drapto encoding started", logging.Int64("total_frames", int64(totalFrames)))
}

func (r *logReporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	r.logger.Debug("drapto encoding progress",
		logging.Float64("percent", float64(s.Percent)),
		logging.Any("fps", s.FPS),
		logging.Any("eta", s.ETA),
	)
}

func (r *logReporter) ValidationComplete(s draptolib.ValidationSummary) {
	r.logger.Debug("drapto validation", logging.Any("passed", s.Passed), logging.Int("steps", len(s.Steps)))
}

func (r *logReporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.logger.Debug("drapto encoding complete",
		logging.Any("output", s.OutputPath),
		logging.Int64("original_bytes", int64(s.OriginalSize)),
		logging.Int64("encoded_bytes", int64(s.EncodedSize)),
		logging.Any("elapsed", s.TotalTime),
	)
}

func (r *logReporter) Warning(message string) {
	logging.WarnWithContext(r.logger, "drapto warning", "drapto_warning",
		logging.String("message", message),
		logging.String(logging.FieldErrorHint, "check the encode output before trusting it"),
	)
}

func (r *logReporter) Error(e draptolib.ReporterError) {
	r.logger.Error("drapto error",
		logging.Any("title", e.Title),
		logging.Any("message", e.Message),
		logging.Any("suggestion", e.Suggestion),
	)
}

func (r *logReporter) OperationComplete(message string) {
	r.logger.Debug("drapto operation complete", logging.String("message", message))
}

func (r *logReporter) BatchStarted(s draptolib.BatchStartInfo) {
	r.logger.Debug("drapto batch started", logging.Any("files", s.TotalFiles))
}

func (r *logReporter) FileProgress(s draptolib.FileProgressContext) {
	r.logger.Debug("drapto file progress", logging.Any("current", s.CurrentFile), logging.Any("total", s.TotalFiles))
}

func (r *logReporter) BatchComplete(s draptolib.BatchSummary) {
	r.logger.Debug("drapto batch complete", logging.Any("successful", s.SuccessfulCount), logging.Any("total", s.TotalFiles))
}

var _ draptolib.Reporter = (*logReporter)(nil)
