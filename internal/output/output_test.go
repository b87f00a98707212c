package output

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chrisdamba/foodlens/internal/cloudwriter"
	"github.com/chrisdamba/foodlens/internal/models"
)

var snapshotTime = time.Date(2024, 6, 20, 14, 5, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

func samplePayload() models.AnalyticsPayload {
	return models.AnalyticsPayload{
		Range: models.DateRange{
			Start: snapshotTime.AddDate(0, 0, -30),
			End:   snapshotTime,
		},
		Summary: models.Summary{
			TotalOrders:       12,
			TotalRevenue:      340.5,
			AverageOrderValue: 28.38,
			ActiveRestaurants: 2,
		},
		Insights:    []string{"Competitive density: 2 active restaurants in the data set."},
		GeneratedAt: snapshotTime,
	}
}

func sampleStores() []models.StoreSummary {
	return []models.StoreSummary{
		{Name: "Taqueria Sol", Lat: 40.73, Lng: -73.99, Category: models.CategoryMexican, OrderCount: 8, TotalRevenue: 210, AvgOrderValue: 26.25, Rating: ptr(4.5)},
		{Name: "Golden Dragon", Lat: 40.72, Lng: -74.0, Category: models.CategoryChinese, OrderCount: 4, TotalRevenue: 130.5, AvgOrderValue: 32.63},
	}
}

type memoryDestination struct {
	topics   []string
	messages [][]byte
	closed   bool
	err      error
}

func (m *memoryDestination) WriteMessage(topic string, msg []byte) error {
	if m.err != nil {
		return m.err
	}
	m.topics = append(m.topics, topic)
	m.messages = append(m.messages, append([]byte(nil), msg...))
	return nil
}

func (m *memoryDestination) Close() error {
	m.closed = true
	return nil
}

func TestWriteSnapshot(t *testing.T) {
	dest := &memoryDestination{}
	if err := WriteSnapshot(dest, samplePayload(), sampleStores()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	want := []string{TopicSnapshots, TopicStores, TopicStores}
	if strings.Join(dest.topics, ",") != strings.Join(want, ",") {
		t.Fatalf("topics = %v", dest.topics)
	}

	var snap SnapshotRow
	if err := json.Unmarshal(dest.messages[0], &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Timestamp != snapshotTime.Unix() || snap.TotalOrders != 12 || snap.RangeEnd != "2024-06-20T14:05:00Z" {
		t.Fatalf("snapshot row = %+v", snap)
	}
	var embedded models.AnalyticsPayload
	if err := json.Unmarshal([]byte(snap.Payload), &embedded); err != nil || embedded.Summary.TotalRevenue != 340.5 {
		t.Fatalf("embedded payload = %+v, %v", embedded.Summary, err)
	}

	dest.err = errors.New("disk full")
	if err := WriteSnapshot(dest, samplePayload(), nil); !errors.Is(err, dest.err) {
		t.Fatalf("expected wrapped write error, got %v", err)
	}
}

func TestMessageTime(t *testing.T) {
	got, err := messageTime([]byte(`{"timestamp": 1718892300}`))
	if err != nil || !got.Equal(snapshotTime) {
		t.Fatalf("messageTime = %v, %v", got, err)
	}
	if _, err := messageTime([]byte(`{"name":"x"}`)); err == nil {
		t.Fatal("expected an error without a timestamp")
	}
	if p := partitionPath(snapshotTime); p != "year=2024/month=06/day=20/hour=14" {
		t.Fatalf("partitionPath = %q", p)
	}
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	out := NewConsoleOutput(&buf)
	if err := out.WriteMessage(TopicStores, []byte(`{"name":"a"}`)); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	if got := buf.String(); got != "[store_summaries] {\"name\":\"a\"}\n" {
		t.Fatalf("console output = %q", got)
	}
}

func TestJSONOutputPartitions(t *testing.T) {
	dir := t.TempDir()
	out := NewJSONOutput(dir, "analytics")
	if err := WriteSnapshot(out, samplePayload(), sampleStores()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	file, err := os.Open(filepath.Join(dir, "analytics", TopicStores, "year=2024/month=06/day=20/hour=14", "data.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var names []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var row StoreRow
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			t.Fatalf("line %q: %v", scanner.Text(), err)
		}
		names = append(names, row.Name)
	}
	if strings.Join(names, ",") != "Taqueria Sol,Golden Dragon" {
		t.Fatalf("names = %v", names)
	}
}

func TestCSVOutput(t *testing.T) {
	dir := t.TempDir()
	out := NewCSVOutput(dir, "analytics")
	if err := WriteSnapshot(out, samplePayload(), sampleStores()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	file, err := os.Open(filepath.Join(dir, "analytics", TopicStores, "year=2024/month=06/day=20/hour=14", "data.csv"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d csv records, want header + 2", len(records))
	}
	header := strings.Join(records[0], ",")
	if header != "avgOrderValue,category,lat,lng,name,orderCount,rating,timestamp,totalRevenue" {
		t.Fatalf("header = %s", header)
	}
	// the second store has no rating, so the column is empty
	if records[2][4] != "Golden Dragon" || records[2][6] != "" {
		t.Fatalf("row = %v", records[2])
	}
}

func TestKafkaOutputMapsTopics(t *testing.T) {
	producer := &memoryDestination{}
	out := NewKafkaOutput(producer, map[string]string{TopicSnapshots: "prod.snapshots"})
	if err := WriteSnapshot(out, samplePayload(), sampleStores()[:1]); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if producer.topics[0] != "prod.snapshots" || producer.topics[1] != TopicStores {
		t.Fatalf("topics = %v", producer.topics)
	}
	if err := out.Close(); err != nil || !producer.closed {
		t.Fatalf("Close: %v closed=%v", err, producer.closed)
	}
}

type fakeStoreRepo struct {
	ensured  bool
	replaced []models.StoreSummary
}

func (f *fakeStoreRepo) EnsureSchema(context.Context) error {
	f.ensured = true
	return nil
}

func (f *fakeStoreRepo) ReplaceAll(_ context.Context, stores []models.StoreSummary) error {
	f.replaced = stores
	return nil
}

func (f *fakeStoreRepo) FindNearby(context.Context, models.Location, float64) ([]models.StoreSummary, error) {
	return f.replaced, nil
}

func (f *fakeStoreRepo) Count(context.Context) (int, error) { return len(f.replaced), nil }

func TestPostgresOutputReplacesStores(t *testing.T) {
	repo := &fakeStoreRepo{}
	core, logs := observer.New(zap.InfoLevel)
	out := NewPostgresOutput(context.Background(), repo, zap.New(core))
	if err := WriteSnapshot(out, samplePayload(), sampleStores()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if repo.replaced != nil {
		t.Fatal("stores must not be written before Close")
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !repo.ensured || len(repo.replaced) != 2 {
		t.Fatalf("repo = %+v", repo)
	}
	got := repo.replaced[0]
	if got.Name != "Taqueria Sol" || got.OrderCount != 8 || got.Category != models.CategoryMexican || *got.Rating != 4.5 {
		t.Fatalf("stored summary = %+v", got)
	}
	written := logs.FilterMessage("store summaries written").All()
	if len(written) != 1 || written[0].ContextMap()["persisted"] != int64(2) {
		t.Fatalf("expected the persisted row count to be logged, got %+v", written)
	}
}

func TestParquetOutputLocal(t *testing.T) {
	dir := t.TempDir()
	out := NewParquetOutput(context.Background(), dir, "analytics", nil, "", nil)
	if err := WriteSnapshot(out, samplePayload(), sampleStores()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	fr, err := local.NewLocalFileReader(filepath.Join(dir, "analytics", TopicStores, "year=2024/month=06/day=20/hour=14", "data.parquet"))
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(StoreRow), 1)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	defer pr.ReadStop()

	if n := pr.GetNumRows(); n != 2 {
		t.Fatalf("got %d rows, want 2", n)
	}
	rows := make([]StoreRow, 2)
	if err := pr.Read(&rows); err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if rows[0].Name != "Taqueria Sol" || rows[0].Rating == nil || *rows[0].Rating != 4.5 || rows[1].Rating != nil {
		t.Fatalf("rows = %+v", rows)
	}
}

type bufferWriter struct {
	bytes.Buffer
	closed bool
}

func (b *bufferWriter) Close() error {
	b.closed = true
	return nil
}

type bufferFactory struct {
	objects map[string]*bufferWriter
}

func (f *bufferFactory) NewWriter(_ context.Context, bucket, objectPath string) (cloudwriter.CloudWriter, error) {
	w := &bufferWriter{}
	f.objects[bucket+"/"+objectPath] = w
	return w, nil
}

func TestParquetOutputCloud(t *testing.T) {
	factory := &bufferFactory{objects: make(map[string]*bufferWriter)}
	out := NewParquetOutput(context.Background(), "unused", "analytics", factory, "exports", nil)
	if err := WriteSnapshot(out, samplePayload(), sampleStores()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	obj, ok := factory.objects["exports/analytics/store_summaries/year=2024/month=06/day=20/hour=14/data.parquet"]
	if !ok {
		t.Fatalf("objects = %v", factory.objects)
	}
	data := obj.Bytes()
	if !obj.closed || !bytes.HasPrefix(data, []byte("PAR1")) || !bytes.HasSuffix(data, []byte("PAR1")) {
		t.Fatalf("object not a closed parquet file (closed=%v, %d bytes)", obj.closed, len(data))
	}
}

func TestNewDestination(t *testing.T) {
	cfg := &models.Config{}
	cfg.Output.OutputPath = t.TempDir()

	for _, format := range []string{"", "console", "json", "csv", "parquet"} {
		cfg.Output.Format = format
		dest, err := NewDestination(context.Background(), cfg, nil, nil)
		if err != nil {
			t.Fatalf("%q: %v", format, err)
		}
		_ = dest.Close()
	}

	cfg.Output.Format = "postgres"
	if _, err := NewDestination(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("postgres without a repository should fail")
	}
	cfg.Output.Format = "xml"
	if _, err := NewDestination(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("unknown format should fail")
	}
}
