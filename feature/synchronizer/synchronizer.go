package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docsync/core/idmap"
	"docsync/core/logger"
	"docsync/core/metrics"
	"docsync/core/propstore"
	"docsync/core/reconcile"
	"docsync/core/remote"
	"docsync/feature/payload"
	"docsync/feature/source"
	"docsync/feature/walker"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Authenticator exchanges device credentials for user tokens.
type Authenticator interface {
	// RegisterDevice trades a one-time code for a device token.
	RegisterDevice(ctx context.Context, code, deviceID string) (string, error)
	// UserToken trades a device token for a user token.
	UserToken(ctx context.Context, deviceToken string) (string, error)
	// StorageHost returns the storage API base URL for a user token.
	StorageHost(ctx context.Context, userToken string) (string, error)
}

// Connector creates the remote store a user token grants access to.
type Connector func(ctx context.Context, host, userToken string) (remote.Store, error)

// Options configures a run.
type Options struct {
	Mode       reconcile.Mode
	SourceRoot string
	RemoteRoot string
	// OneTimeCode registers a new device when no device token is cached.
	OneTimeCode string
	Skip        []string
	Force       reconcile.ForceFunc
	BatchSize   int
	DryRun      bool
}

// Deps holds the collaborators of a Synchronizer.
type Deps struct {
	Tree    source.Tree
	Props   propstore.Store
	Auth    Authenticator
	Connect Connector
	// Payloads defaults to a zip builder over Tree.
	Payloads reconcile.PayloadBuilder
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Synchronizer runs syncs for one relationship.
type Synchronizer struct {
	opts Options
	deps Deps
	now  func() time.Time
}

// New validates opts and creates a Synchronizer.
func New(opts Options, deps Deps) (*Synchronizer, error) {
	mode, err := reconcile.ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	opts.Mode = mode

	if opts.RemoteRoot == "" {
		return nil, errors.New("remote root is required")
	}
	if deps.Tree == nil || deps.Props == nil || deps.Auth == nil || deps.Connect == nil {
		return nil, errors.New("tree, property store, authenticator and connector are required")
	}
	if deps.Payloads == nil {
		deps.Payloads = payload.NewZipBuilder(deps.Tree)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Synchronizer{opts: opts, deps: deps, now: time.Now}, nil
}

// Options returns the run options.
func (s *Synchronizer) Options() Options {
	return s.opts
}

// Run performs one sync. Failures are recorded in the report.
func (s *Synchronizer) Run(ctx context.Context) (report *RunReport) {
	report = &RunReport{
		RunID:     uuid.NewString(),
		Mode:      s.opts.Mode,
		DryRun:    s.opts.DryRun,
		StartedAt: s.now(),
	}
	log := logger.WithRun(s.deps.Logger, report.RunID)

	defer func() {
		if r := recover(); r != nil {
			report.fail(fmt.Errorf("panic: %v", r))
			log.Error("Sync run panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
		report.FinishedAt = s.now()
		s.deps.Metrics.ObserveRun(report.OK(), report.Elapsed())
		log.Info("Sync run finished",
			zap.Bool("ok", report.OK()),
			zap.Duration("elapsed", report.Elapsed()),
			zap.String("error", report.Error),
		)
	}()

	log.Info("Starting sync run", zap.String("mode", string(s.opts.Mode)), zap.Bool("dry_run", s.opts.DryRun))
	if err := s.run(ctx, log, report); err != nil {
		report.fail(err)
		log.Error("Sync run failed", zap.Error(err))
	}
	return report
}

func (s *Synchronizer) run(ctx context.Context, log *zap.Logger, report *RunReport) error {
	store, err := s.session().Dial(ctx, log)
	if err != nil {
		return err
	}

	items, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list remote items: %w", err)
	}
	listing := reconcile.NewListing(items)
	report.RemoteItems = listing.Len()
	log.Info("Fetched remote listing", zap.Int("items", listing.Len()))

	rootID, err := resolveRemoteRoot(listing, s.opts.RemoteRoot)
	if err != nil {
		return err
	}
	report.RemoteRoot = rootID
	log.Info("Mapped remote root", zap.String("locator", s.opts.RemoteRoot), zap.String("id", rootID))

	srcRoot, err := s.deps.Tree.Root(ctx, s.opts.SourceRoot)
	if err != nil {
		return &LookupError{Kind: "source", Locator: s.opts.SourceRoot, Err: err}
	}

	ids, err := idmap.Load(ctx, s.deps.Props, propstore.ReservedKeys)
	if err != nil {
		return err
	}
	w := walker.New(s.deps.Tree, ids, walker.WithSkip(s.opts.Skip...), walker.WithLogger(log))
	candidates, err := w.Walk(ctx, srcRoot, rootID)
	if err != nil {
		return err
	}
	report.Candidates = len(candidates)
	report.NewIdentifiers = ids.Added()
	log.Info("Scanned source tree", zap.String("root", srcRoot.Name), zap.Int("candidates", len(candidates)), zap.Int("new_identifiers", ids.Added()))

	if err := ids.Flush(ctx); err != nil {
		return err
	}
	s.deps.Metrics.SetSizes(listing.Len(), len(candidates))

	engine := reconcile.NewEngine(store, s.deps.Payloads, reconcile.WithLogger(log), reconcile.WithMetrics(s.deps.Metrics))
	spec := &reconcile.Spec{
		Mode:      s.opts.Mode,
		Root:      rootID,
		Force:     s.opts.Force,
		BatchSize: s.opts.BatchSize,
	}
	plan, result, err := engine.ReconcileAndApply(ctx, spec, listing, candidates, reconcile.ReconcileOptions{DryRun: s.opts.DryRun})
	report.Plan = &plan.Summary
	report.Result = result
	log.Info("Planned reconciliation",
		zap.Int("uploads", plan.Summary.Uploads),
		zap.Int("deletions", plan.Summary.Deletions),
		zap.Int("unchanged", plan.Summary.Unchanged),
		zap.Int("excluded", plan.Summary.Excluded),
	)
	return err
}

// Connect authenticates and returns the remote store, without syncing.
func (s *Synchronizer) Connect(ctx context.Context) (remote.Store, error) {
	return s.session().Dial(ctx, s.deps.Logger)
}

func (s *Synchronizer) session() *Session {
	return &Session{Props: s.deps.Props, Auth: s.deps.Auth, Connect: s.deps.Connect, OneTimeCode: s.opts.OneTimeCode}
}

// Reset forgets the cached device credentials. The identifier map is kept.
func (s *Synchronizer) Reset(ctx context.Context) error {
	if err := ResetCredentials(ctx, s.deps.Props); err != nil {
		return err
	}
	s.deps.Logger.Info("Cleared cached device credentials")
	return nil
}

// resolveRemoteRoot accepts a UUID as is and otherwise looks the locator up
// by display name.
func resolveRemoteRoot(listing *reconcile.Listing, locator string) (string, error) {
	if isUUID(locator) {
		return locator, nil
	}
	item, ok := listing.FindByName(locator)
	if !ok {
		return "", &LookupError{Kind: "remote", Locator: locator}
	}
	return item.ID, nil
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
