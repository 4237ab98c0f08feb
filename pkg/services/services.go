// Package services orchestrates the client: placing calls, reconciling
// the device log with the local store, confirming entries and syncing
// the pending batch to the server.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tracklog/tracklog-client/pkg/appcontext"
	"github.com/tracklog/tracklog-client/pkg/bdkeeper"
	"github.com/tracklog/tracklog-client/pkg/calllog"
	"github.com/tracklog/tracklog-client/pkg/config"
	"github.com/tracklog/tracklog-client/pkg/encription"
	"github.com/tracklog/tracklog-client/pkg/logger"
	"github.com/tracklog/tracklog-client/pkg/models"
	"github.com/tracklog/tracklog-client/pkg/reconciler"
	"github.com/tracklog/tracklog-client/pkg/syncinfo"
	"github.com/tracklog/tracklog-client/pkg/tlsync"
)

var (
	// ErrNothingToSync means the pending batch is empty; no request was made.
	ErrNothingToSync = errors.New("nothing to sync")

	// ErrSyncInFlight means another sync attempt is already running.
	ErrSyncInFlight = errors.New("sync already in progress")

	// ErrNotAuthenticated means no session is stored; the user must log in.
	ErrNotAuthenticated = errors.New("not authenticated")
)

type Service struct {
	keeper *bdkeeper.Keeper
	reader calllog.Reader
	dialer calllog.Dialer
	api    *tlsync.Client
	enc    *encription.Enc
	sm     *syncinfo.SyncManager
	opt    *config.Options
	log    logger.LoggerInterface

	wake chan struct{}
}

func NewServices(keeper *bdkeeper.Keeper, reader calllog.Reader, dialer calllog.Dialer,
	api *tlsync.Client, enc *encription.Enc, sm *syncinfo.SyncManager,
	opt *config.Options, log logger.LoggerInterface,
) *Service {
	return &Service{
		keeper: keeper,
		reader: reader,
		dialer: dialer,
		api:    api,
		enc:    enc,
		sm:     sm,
		opt:    opt,
		log:    log,
		wake:   make(chan struct{}, 1),
	}
}

// Login authenticates against the server and stores the returned
// identity locally, password encrypted at rest.
func (s *Service) Login(ctx context.Context, username, password string) (models.Session, error) {
	sess, err := s.api.Login(ctx, username, password)
	if err != nil {
		return models.Session{}, err
	}

	encPassword, err := s.enc.Encrypt(sess.Password)
	if err != nil {
		return models.Session{}, fmt.Errorf("encrypt password: %w", err)
	}

	stored := sess
	stored.Password = encPassword
	if err := s.keeper.SaveSession(ctx, stored); err != nil {
		return models.Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Session returns the stored identity with the password decrypted for
// use in upload requests.
func (s *Service) Session(ctx context.Context) (models.Session, error) {
	sess, err := s.keeper.LoadSession(ctx)
	if errors.Is(err, bdkeeper.ErrNoSession) {
		return models.Session{}, ErrNotAuthenticated
	}
	if err != nil {
		return models.Session{}, err
	}

	password, err := s.enc.Decrypt(sess.Password)
	if err != nil {
		return models.Session{}, fmt.Errorf("decrypt password: %w", err)
	}
	sess.Password = password
	return sess, nil
}

// Logout drops the stored session.
func (s *Service) Logout(ctx context.Context) error {
	return s.keeper.DeleteSession(ctx)
}

// PlaceCall hands the number to the platform dialer and records the
// attempt locally. The dial always goes through first: a storage failure
// is logged but never blocks the call itself.
func (s *Service) PlaceCall(ctx context.Context, number string) error {
	if !calllog.ValidNumber(number) {
		return fmt.Errorf("invalid phone number: %q", number)
	}

	if err := s.dialer.Dial(ctx, number); err != nil {
		return fmt.Errorf("dial %s: %w", number, err)
	}

	dateTime := time.Now().Format(models.StoreTimeLayout)
	if _, err := s.keeper.AddCallRecord(ctx, number, dateTime); err != nil {
		s.log.Printf("record call to %s: %v", number, err)
	}
	s.Wake()
	return nil
}

// ConfirmCall marks an incoming or missed entry as confirmed for sync.
// Outgoing entries are matched automatically and cannot be confirmed.
func (s *Service) ConfirmCall(ctx context.Context, entry models.DeviceLogEntry) error {
	if entry.Type == models.CallOutgoing {
		return errors.New("outgoing calls are matched automatically")
	}
	if err := s.keeper.ConfirmCall(ctx, entry.LocalID); err != nil {
		return err
	}
	s.Wake()
	return nil
}

// Reconcile runs one reconciliation pass and caches the resulting batch.
func (s *Service) Reconcile(ctx context.Context) (reconciler.Result, error) {
	entries, err := s.reader.Load(ctx, s.opt.MaxLogCount)
	if err != nil {
		return reconciler.Result{}, fmt.Errorf("load device log: %w", err)
	}

	records, err := s.keeper.ListCallRecords(ctx)
	if err != nil {
		return reconciler.Result{}, fmt.Errorf("list call records: %w", err)
	}

	confirmed, synced, err := s.keeper.CallMarks(ctx)
	if err != nil {
		return reconciler.Result{}, fmt.Errorf("load call marks: %w", err)
	}

	cached, err := s.keeper.LoadPendingBatch(ctx)
	if err != nil {
		return reconciler.Result{}, fmt.Errorf("load pending batch: %w", err)
	}

	res := reconciler.Reconcile(entries, records, confirmed, synced, cached,
		reconciler.Options{StartHour: s.opt.StartHour, EndHour: s.opt.EndHour})

	if err := s.keeper.SavePendingBatch(ctx, res.Batch); err != nil {
		s.log.Printf("cache pending batch: %v", err)
	}
	return res, nil
}

// RecentCalls returns the device log entries the call list should show.
func (s *Service) RecentCalls(ctx context.Context) ([]models.DeviceLogEntry, error) {
	entries, err := s.reader.Load(ctx, s.opt.MaxLogCount)
	if err != nil {
		return nil, fmt.Errorf("load device log: %w", err)
	}
	records, err := s.keeper.ListCallRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list call records: %w", err)
	}
	return reconciler.Visible(entries, records,
		reconciler.Options{StartHour: s.opt.StartHour, EndHour: s.opt.EndHour}), nil
}

// ItemResult is the per-item outcome of a sync attempt.
type ItemResult struct {
	LocalDBID   string
	PhoneNumber string
	Success     bool
	Err         error
}

// SyncResult summarizes one sync attempt.
type SyncResult struct {
	AttemptID string
	Total     int
	Succeeded int
	Failed    int
	Items     []ItemResult
}

// FullSuccess reports whether every item in the attempt was accepted.
func (r *SyncResult) FullSuccess() bool {
	return r.Failed == 0 && r.Total > 0
}

// Sync uploads the current pending batch item by item. Items the server
// accepts are marked synced immediately, so a partially failed attempt
// leaves only the failed items for the next cycle. Only a fully
// successful attempt clears the local store and the cached batch.
func (s *Service) Sync(ctx context.Context) (*SyncResult, error) {
	if !s.sm.TryBegin() {
		return nil, ErrSyncInFlight
	}
	defer s.sm.End()

	res, err := s.Reconcile(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Batch) == 0 {
		return nil, ErrNothingToSync
	}

	sess, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}

	attempt := uuid.NewString()
	ctx = appcontext.WithSyncAttempt(ctx, attempt)

	out := &SyncResult{AttemptID: attempt, Total: len(res.Batch)}
	for _, item := range res.Batch {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		ok, err := s.api.UploadCall(ctx, item, sess)
		ir := ItemResult{LocalDBID: item.LocalDBID, PhoneNumber: item.PhoneNumber, Success: ok, Err: err}
		out.Items = append(out.Items, ir)

		if ok && err == nil {
			out.Succeeded++
			if err := s.keeper.MarkSynced(ctx, item.LocalDBID); err != nil {
				s.log.Printf("mark %s synced: %v", item.LocalDBID, err)
			}
			continue
		}
		out.Failed++
		if err != nil {
			s.log.Printf("upload %s: %v", item.LocalDBID, err)
		}
	}

	if out.FullSuccess() {
		if err := s.keeper.ClearCallRecords(ctx); err != nil {
			s.log.Printf("clear call records: %v", err)
		}
		if err := s.keeper.ClearPendingBatch(ctx); err != nil {
			s.log.Printf("clear pending batch: %v", err)
		}
		if err := s.sm.UpdateAndSaveSyncInfo(syncinfo.SyncInfo{LastSync: time.Now()}); err != nil {
			s.log.Printf("save sync info: %v", err)
		}
	}
	return out, nil
}

// History fetches the server-side call history for the date range.
func (s *Service) History(ctx context.Context, from, to time.Time) ([]models.HistoryRecord, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.History(ctx, sess, from, to)
}

// LastSync returns the timestamp of the last fully successful sync.
func (s *Service) LastSync() time.Time {
	return s.sm.GetSyncInfo().LastSync
}

// Wake nudges the background loop to reconcile now instead of waiting
// for the next tick. Non-blocking; a pending nudge absorbs new ones.
func (s *Service) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run drives the periodic reconcile/sync loop until the context ends.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opt.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.wake:
		}

		if s.sm.InFlight() {
			continue
		}

		res, err := s.Reconcile(ctx)
		if err != nil {
			s.log.Printf("reconcile: %v", err)
			continue
		}
		if !s.opt.SyncWithServer || res.Count == 0 {
			continue
		}

		if _, err := s.Sync(ctx); err != nil &&
			!errors.Is(err, ErrNothingToSync) && !errors.Is(err, ErrSyncInFlight) {
			s.log.Printf("sync: %v", err)
		}
	}
}
