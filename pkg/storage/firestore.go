package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"github.com/soltwin/soltwin/pkg/log"
	"github.com/soltwin/soltwin/pkg/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	panelsCollection    = "panels"
	batteriesCollection = "batteries"
	blackoutsCollection = "blackouts"

	// blackout documents are keyed by calendar day so range queries can use
	// document ID filters
	blackoutDocIDFormat = "2006-01-02"
)

// FirestoreProvider implements the Database interface using Google Cloud
// Firestore. Records are stored as JSON blobs for portability.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
	now       func() time.Time
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{now: time.Now}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// Project ID verification could be here, but we allow empty if inferred.
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// decodeJSONDoc unmarshals the "json" field of a document into out.
func decodeJSONDoc(doc *firestore.DocumentSnapshot, out interface{}) error {
	val, err := doc.DataAt("json")
	if err != nil {
		return fmt.Errorf("document %s missing 'json' field: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		return fmt.Errorf("document %s 'json' field is not a string", doc.Ref.ID)
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("failed to unmarshal document %s: %w", doc.Ref.ID, err)
	}
	return nil
}

// ListPanels retrieves all panel specs, most recently updated first.
func (f *FirestoreProvider) ListPanels(ctx context.Context) ([]types.PanelSpec, error) {
	iter := f.client.Collection(panelsCollection).
		OrderBy("updatedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var panels []types.PanelSpec
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating panels: %w", err)
		}

		var p types.PanelSpec
		if err := decodeJSONDoc(doc, &p); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "skipping malformed panel doc", slog.String("panelID", doc.Ref.ID), slog.Any("err", err))
			continue
		}
		p.ID = doc.Ref.ID
		panels = append(panels, p)
	}
	return panels, nil
}

// GetPanel retrieves a single panel spec by ID.
func (f *FirestoreProvider) GetPanel(ctx context.Context, id string) (types.PanelSpec, error) {
	doc, err := f.client.Collection(panelsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.PanelSpec{}, fmt.Errorf("%w: panel %s", ErrNotFound, id)
		}
		return types.PanelSpec{}, fmt.Errorf("failed to get panel %s: %w", id, err)
	}

	var p types.PanelSpec
	if err := decodeJSONDoc(doc, &p); err != nil {
		return types.PanelSpec{}, err
	}
	p.ID = doc.Ref.ID
	return p, nil
}

// CreatePanel stores a new panel spec and returns it with the assigned ID and
// timestamps.
func (f *FirestoreProvider) CreatePanel(ctx context.Context, panel types.PanelSpec) (types.PanelSpec, error) {
	docRef := f.client.Collection(panelsCollection).NewDoc()
	now := f.now().UTC()
	panel.ID = docRef.ID
	panel.CreatedAt = now
	panel.UpdatedAt = now

	jsonBytes, err := json.Marshal(panel)
	if err != nil {
		return types.PanelSpec{}, fmt.Errorf("failed to marshal panel: %w", err)
	}
	if _, err := docRef.Create(ctx, map[string]interface{}{
		"json":      string(jsonBytes),
		"updatedAt": panel.UpdatedAt,
	}); err != nil {
		return types.PanelSpec{}, fmt.Errorf("failed to create panel: %w", err)
	}
	return panel, nil
}

// UpdatePanel overwrites an existing panel spec.
func (f *FirestoreProvider) UpdatePanel(ctx context.Context, panel types.PanelSpec) error {
	if panel.ID == "" {
		return fmt.Errorf("panel ID cannot be empty")
	}
	panel.UpdatedAt = f.now().UTC()

	jsonBytes, err := json.Marshal(panel)
	if err != nil {
		return fmt.Errorf("failed to marshal panel %s: %w", panel.ID, err)
	}
	if _, err := f.client.Collection(panelsCollection).Doc(panel.ID).Set(ctx, map[string]interface{}{
		"json":      string(jsonBytes),
		"updatedAt": panel.UpdatedAt,
	}); err != nil {
		return fmt.Errorf("failed to update panel %s: %w", panel.ID, err)
	}
	return nil
}

// DeletePanel removes a panel spec. It returns ErrNotFound if the panel does
// not exist.
func (f *FirestoreProvider) DeletePanel(ctx context.Context, id string) error {
	docRef := f.client.Collection(panelsCollection).Doc(id)
	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: panel %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to get panel %s: %w", id, err)
	}
	if _, err := docRef.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete panel %s: %w", id, err)
	}
	return nil
}

// ListBatteries retrieves all battery specs, most recently updated first.
func (f *FirestoreProvider) ListBatteries(ctx context.Context) ([]types.BatterySpec, error) {
	iter := f.client.Collection(batteriesCollection).
		OrderBy("updatedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var batteries []types.BatterySpec
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating batteries: %w", err)
		}

		var b types.BatterySpec
		if err := decodeJSONDoc(doc, &b); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "skipping malformed battery doc", slog.String("batteryID", doc.Ref.ID), slog.Any("err", err))
			continue
		}
		b.ID = doc.Ref.ID
		batteries = append(batteries, b)
	}
	return batteries, nil
}

// GetBattery retrieves a single battery spec by ID.
func (f *FirestoreProvider) GetBattery(ctx context.Context, id string) (types.BatterySpec, error) {
	doc, err := f.client.Collection(batteriesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.BatterySpec{}, fmt.Errorf("%w: battery %s", ErrNotFound, id)
		}
		return types.BatterySpec{}, fmt.Errorf("failed to get battery %s: %w", id, err)
	}

	var b types.BatterySpec
	if err := decodeJSONDoc(doc, &b); err != nil {
		return types.BatterySpec{}, err
	}
	b.ID = doc.Ref.ID
	return b, nil
}

// CreateBattery stores a new battery spec and returns it with the assigned ID
// and timestamps.
func (f *FirestoreProvider) CreateBattery(ctx context.Context, battery types.BatterySpec) (types.BatterySpec, error) {
	docRef := f.client.Collection(batteriesCollection).NewDoc()
	now := f.now().UTC()
	battery.ID = docRef.ID
	battery.CreatedAt = now
	battery.UpdatedAt = now

	jsonBytes, err := json.Marshal(battery)
	if err != nil {
		return types.BatterySpec{}, fmt.Errorf("failed to marshal battery: %w", err)
	}
	if _, err := docRef.Create(ctx, map[string]interface{}{
		"json":      string(jsonBytes),
		"updatedAt": battery.UpdatedAt,
	}); err != nil {
		return types.BatterySpec{}, fmt.Errorf("failed to create battery: %w", err)
	}
	return battery, nil
}

// UpdateBattery overwrites an existing battery spec.
func (f *FirestoreProvider) UpdateBattery(ctx context.Context, battery types.BatterySpec) error {
	if battery.ID == "" {
		return fmt.Errorf("battery ID cannot be empty")
	}
	battery.UpdatedAt = f.now().UTC()

	jsonBytes, err := json.Marshal(battery)
	if err != nil {
		return fmt.Errorf("failed to marshal battery %s: %w", battery.ID, err)
	}
	if _, err := f.client.Collection(batteriesCollection).Doc(battery.ID).Set(ctx, map[string]interface{}{
		"json":      string(jsonBytes),
		"updatedAt": battery.UpdatedAt,
	}); err != nil {
		return fmt.Errorf("failed to update battery %s: %w", battery.ID, err)
	}
	return nil
}

// DeleteBattery removes a battery spec. It returns ErrNotFound if the battery
// does not exist.
func (f *FirestoreProvider) DeleteBattery(ctx context.Context, id string) error {
	docRef := f.client.Collection(batteriesCollection).Doc(id)
	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: battery %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to get battery %s: %w", id, err)
	}
	if _, err := docRef.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete battery %s: %w", id, err)
	}
	return nil
}

// UpsertBlackoutByDate stores a blackout schedule keyed by its calendar day,
// replacing any existing schedule for that day. The creation timestamp of an
// existing document is preserved.
func (f *FirestoreProvider) UpsertBlackoutByDate(ctx context.Context, schedule types.BlackoutSchedule) (types.BlackoutSchedule, error) {
	if schedule.Date.IsZero() {
		return types.BlackoutSchedule{}, fmt.Errorf("blackout schedule missing date")
	}
	docID := schedule.Date.UTC().Format(blackoutDocIDFormat)
	docRef := f.client.Collection(blackoutsCollection).Doc(docID)

	now := f.now().UTC()
	schedule.ID = docID
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	if existing, err := f.GetBlackout(ctx, docID); err == nil {
		schedule.CreatedAt = existing.CreatedAt
	}

	jsonBytes, err := json.Marshal(schedule)
	if err != nil {
		return types.BlackoutSchedule{}, fmt.Errorf("failed to marshal blackout schedule: %w", err)
	}
	if _, err := docRef.Set(ctx, map[string]interface{}{
		"json": string(jsonBytes),
		"date": schedule.Date,
	}); err != nil {
		return types.BlackoutSchedule{}, fmt.Errorf("failed to upsert blackout schedule: %w", err)
	}
	return schedule, nil
}

// GetBlackout retrieves a single blackout schedule by ID.
func (f *FirestoreProvider) GetBlackout(ctx context.Context, id string) (types.BlackoutSchedule, error) {
	doc, err := f.client.Collection(blackoutsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.BlackoutSchedule{}, fmt.Errorf("%w: blackout schedule %s", ErrNotFound, id)
		}
		return types.BlackoutSchedule{}, fmt.Errorf("failed to get blackout schedule %s: %w", id, err)
	}

	var s types.BlackoutSchedule
	if err := decodeJSONDoc(doc, &s); err != nil {
		return types.BlackoutSchedule{}, err
	}
	s.ID = doc.Ref.ID
	return s, nil
}

// UpdateBlackout overwrites an existing blackout schedule in place. The
// document keeps its original day key even if the intervals change.
func (f *FirestoreProvider) UpdateBlackout(ctx context.Context, schedule types.BlackoutSchedule) error {
	if schedule.ID == "" {
		return fmt.Errorf("blackout schedule ID cannot be empty")
	}
	schedule.UpdatedAt = f.now().UTC()

	jsonBytes, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("failed to marshal blackout schedule %s: %w", schedule.ID, err)
	}
	if _, err := f.client.Collection(blackoutsCollection).Doc(schedule.ID).Set(ctx, map[string]interface{}{
		"json": string(jsonBytes),
		"date": schedule.Date,
	}); err != nil {
		return fmt.Errorf("failed to update blackout schedule %s: %w", schedule.ID, err)
	}
	return nil
}

// ListBlackouts retrieves blackout schedules ordered by day, optionally
// bounded by from/to dates (inclusive) and a result limit.
func (f *FirestoreProvider) ListBlackouts(ctx context.Context, from, to *time.Time, limit int) ([]types.BlackoutSchedule, error) {
	coll := f.client.Collection(blackoutsCollection)
	q := coll.Query.OrderBy(firestore.DocumentID, firestore.Asc)
	if from != nil {
		q = q.Where(firestore.DocumentID, ">=", coll.Doc(from.UTC().Format(blackoutDocIDFormat)))
	}
	if to != nil {
		q = q.Where(firestore.DocumentID, "<=", coll.Doc(to.UTC().Format(blackoutDocIDFormat)))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	return f.iterateBlackouts(ctx, q)
}

// GetBlackoutsForRange retrieves the schedules whose day falls within
// [start, end], inclusive on both sides.
func (f *FirestoreProvider) GetBlackoutsForRange(ctx context.Context, start, end time.Time) ([]types.BlackoutSchedule, error) {
	coll := f.client.Collection(blackoutsCollection)
	q := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(start.UTC().Format(blackoutDocIDFormat))).
		Where(firestore.DocumentID, "<=", coll.Doc(end.UTC().Format(blackoutDocIDFormat))).
		OrderBy(firestore.DocumentID, firestore.Asc)
	return f.iterateBlackouts(ctx, q)
}

func (f *FirestoreProvider) iterateBlackouts(ctx context.Context, q firestore.Query) ([]types.BlackoutSchedule, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var schedules []types.BlackoutSchedule
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating blackout schedules: %w", err)
		}

		var s types.BlackoutSchedule
		if err := decodeJSONDoc(doc, &s); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "skipping malformed blackout doc", slog.String("scheduleID", doc.Ref.ID), slog.Any("err", err))
			continue
		}
		s.ID = doc.Ref.ID
		schedules = append(schedules, s)
	}
	return schedules, nil
}

// DeleteBlackout removes a blackout schedule. It returns ErrNotFound if the
// schedule does not exist.
func (f *FirestoreProvider) DeleteBlackout(ctx context.Context, id string) error {
	docRef := f.client.Collection(blackoutsCollection).Doc(id)
	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: blackout schedule %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete blackout schedule %s: %w", id, err)
	}
	if _, err := docRef.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete blackout schedule %s: %w", id, err)
	}
	return nil
}
