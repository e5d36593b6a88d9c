package pipeline

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"scorewatch/src/archive"
	"scorewatch/src/catalog"
	"scorewatch/src/classify"
	"scorewatch/src/extract"
	"scorewatch/src/ocr"
	"scorewatch/src/privacy"
	"scorewatch/src/screenshot"
	"scorewatch/src/session"
)

// AppName is the directory captures are persisted under.
const AppName = "ScoreWatch"

// whereManual is the screen-variant hint for manual submissions; the archive
// runs its own classifier when it sees it.
const whereManual = "auto"

// Status is the tri-state outcome of one capture.
type Status int

const (
	// StatusWaiting means no result screen was recognized (or the gate was
	// closed); keep watching.
	StatusWaiting Status = iota
	// StatusAccepted means the archive verified the play (or it was a
	// versus/collection event, which need no verification).
	StatusAccepted
	// StatusRejected means something failed: upload error, unverified play.
	StatusRejected
)

// CaptureOptions are the per-capture switches, read from settings at capture
// time.
type CaptureOptions struct {
	// Manual marks a user-initiated submission: classification is skipped and
	// the gate does not apply.
	Manual bool
	// SaveImage persists the (redacted) capture after a successful upload.
	SaveImage bool
	// Policy is the privacy policy applied before the image is persisted.
	Policy privacy.Policy
}

// Request carries everything one invocation needs. Per-capture state lives
// here, never on the Pipeline.
type Request struct {
	Image   image.Image
	Game    catalog.Game
	Session session.Session
	Options CaptureOptions
	// Enabled switches sampling regions on and off by screen name.
	Enabled map[string]bool
	// Gate is owned by the caller; see UploadGate.
	Gate *UploadGate
}

// Outcome is the single terminal result of one invocation. Err is a message,
// not an error: nothing propagates past the orchestrator.
type Outcome struct {
	Status   Status
	Result   *archive.PlayResult
	Uploaded bool
	// Matched reports whether a result screen was recognized (always true
	// for manual submissions). The watcher resets the gate when a closed
	// gate meets an unmatched capture: the screen is gone.
	Matched bool
	Err     string
}

// Uploader submits a capture to the archive.
type Uploader interface {
	Upload(ctx context.Context, game catalog.Game, imageBytes []byte, where string, sess session.Session) (*archive.PlayResult, error)
}

// Notifier fans a play result out to the UI surfaces.
type Notifier interface {
	Dispatch(ctx context.Context, game catalog.Game, res *archive.PlayResult)
	Failure(text string)
}

// Recorder appends an accepted play to the local history.
type Recorder interface {
	RecordResult(ctx context.Context, game catalog.Game, res *archive.PlayResult)
}

// Pipeline sequences extraction, classification, redaction, upload and
// notification for one capture at a time. It holds only long-lived,
// read-only collaborators and is safe for concurrent invocations.
type Pipeline struct {
	Catalog  *catalog.Catalog
	Uploader Uploader
	Notifier Notifier
	Recorder Recorder

	// PicturesRoot is where redacted captures are persisted.
	PicturesRoot string

	// Recognize is the OCR hook; defaults to ocr.Recognize. Tests swap it.
	Recognize func(image.Image) string
	// Now stamps persisted file names; defaults to time.Now.
	Now func() time.Time
}

// New builds a pipeline with the default OCR and clock hooks.
func New(cat *catalog.Catalog, up Uploader, n Notifier, rec Recorder, picturesRoot string) *Pipeline {
	return &Pipeline{
		Catalog:      cat,
		Uploader:     up,
		Notifier:     n,
		Recorder:     rec,
		PicturesRoot: picturesRoot,
		Recognize:    ocr.Recognize,
		Now:          time.Now,
	}
}

// ProcessCapture runs one capture through the pipeline and always returns a
// terminal outcome. Failures are absorbed here: an upload error becomes a
// rejected outcome plus a generic failure toast, never a returned error.
func (p *Pipeline) ProcessCapture(ctx context.Context, req Request) (out Outcome) {
	captureID := uuid.NewString()[:8]
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Pipeline[%s]: panic recovered: %v", captureID, r)
			out = Outcome{Status: StatusRejected, Err: fmt.Sprint(r)}
		}
	}()

	where := whereManual
	if !req.Options.Manual {
		cls := p.classifyCapture(req)
		if !cls.Matched() {
			return Outcome{Status: StatusWaiting}
		}
		log.Printf("Pipeline[%s]: matched %s (keywords %v, text %q)",
			captureID, cls.Variant, cls.MatchedKeywords, cls.RecognizedText)
		where = cls.Variant

		if req.Gate != nil && req.Gate.Uploaded() {
			log.Printf("Pipeline[%s]: gate closed, skipping upload", captureID)
			return Outcome{Status: StatusWaiting, Matched: true}
		}
	}

	imageBytes, err := screenshot.EncodePNG(req.Image)
	if err != nil {
		log.Printf("Pipeline[%s]: encode capture: %v", captureID, err)
		return Outcome{Status: StatusRejected, Matched: true, Err: err.Error()}
	}

	res, err := p.Uploader.Upload(ctx, req.Game, imageBytes, where, req.Session)
	if err != nil {
		log.Printf("Pipeline[%s]: upload failed: %v", captureID, err)
		if p.Notifier != nil {
			p.Notifier.Failure("Upload failed")
		}
		return Outcome{Status: StatusRejected, Matched: true, Err: err.Error()}
	}

	// versus and collection events carry no per-chart verification; everything
	// else must be verified before it is persisted or announced.
	eligible := res.IsVerified ||
		res.ScreenType == catalog.VariantVersus ||
		res.ScreenType == catalog.VariantCollection
	if !eligible {
		if p.Notifier != nil {
			p.Notifier.Dispatch(ctx, req.Game, res)
		}
		return Outcome{Status: StatusRejected, Result: res, Matched: true, Err: "play not verified"}
	}

	if req.Options.SaveImage {
		if err := p.persistCapture(req, res, captureID); err != nil {
			// A failed save never blocks the notification.
			log.Printf("Pipeline[%s]: persist capture: %v", captureID, err)
		}
	}
	if p.Notifier != nil {
		p.Notifier.Dispatch(ctx, req.Game, res)
	}
	if p.Recorder != nil {
		p.Recorder.RecordResult(ctx, req.Game, res)
	}
	if req.Gate != nil {
		req.Gate.MarkUploaded()
	}
	return Outcome{Status: StatusAccepted, Result: res, Uploaded: true, Matched: true}
}

// classifyCapture samples every enabled region, recognizes its text and runs
// the classifier. Extraction errors degrade to "no text" for that region.
func (p *Pipeline) classifyCapture(req Request) classify.Result {
	texts := make(map[string]string)
	for _, screen := range p.Catalog.Screens(req.Game) {
		if !req.Enabled[screen.Name] {
			continue
		}
		crop, err := extract.Extract(req.Image, screen.Sampling)
		if err != nil {
			log.Printf("Pipeline: extract %s/%s: %v", req.Game, screen.Name, err)
			continue
		}
		texts[screen.Name] = p.Recognize(crop)
	}
	return classify.Classify(p.Catalog, req.Game, texts, req.Enabled)
}

// persistCapture applies the privacy policy and writes the capture under the
// pictures root.
func (p *Pipeline) persistCapture(req Request, res *archive.PlayResult, captureID string) error {
	rects := privacy.ComputeRedactions(p.Catalog, req.Game, res.ScreenType, req.Options.Policy)
	redacted := privacy.ApplyRedactions(req.Image, rects, req.Options.Policy.Style)

	data, err := screenshot.EncodePNG(redacted)
	if err != nil {
		return err
	}

	dir := filepath.Join(p.PicturesRoot, AppName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("%s-%s-%s.png",
		req.Game, captureLabel(res), p.Now().Format("2006-01-02-15-04-05"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.Printf("Pipeline[%s]: saved capture to %s", captureID, path)
	return nil
}

// captureLabel names the persisted file after the event it records.
func captureLabel(res *archive.PlayResult) string {
	switch res.ScreenType {
	case catalog.VariantVersus:
		return res.ScreenType + "-Match"
	case catalog.VariantCollection:
		return "Collection"
	default:
		return sanitizeLabel(res.Song.Title)
	}
}

// sanitizeLabel strips path separators and other characters that do not
// belong in a file name.
func sanitizeLabel(s string) string {
	if s == "" {
		return "Unknown"
	}
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	return replacer.Replace(s)
}
