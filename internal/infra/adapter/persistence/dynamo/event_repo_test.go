package dynamo_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/google/go-cmp/cmp"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/infra/adapter/persistence/dynamo"
)

type item = map[string]*dynamodb.AttributeValue

// fakeDynamo keeps tables in memory and understands the expressions EventRepo emits.
type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI

	mu      sync.Mutex
	tables  map[string]map[string]item
	created []string
	failPut string
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{tables: map[string]map[string]item{}}
}

func keyString(key item) string {
	for _, k := range []string{"id", "url"} {
		if av, ok := key[k]; ok {
			if av.N != nil {
				return *av.N
			}
			return *av.S
		}
	}
	return ""
}

func (f *fakeDynamo) table(name string) map[string]item {
	if f.tables[name] == nil {
		f.tables[name] = map[string]item{}
	}
	return f.tables[name]
}

func conditionFailed() error {
	return awserr.New(dynamodb.ErrCodeConditionalCheckFailedException, "condition failed", nil)
}

func (f *fakeDynamo) GetItemWithContext(_ aws.Context, in *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.table(*in.TableName)[keyString(in.Key)]}, nil
}

func (f *fakeDynamo) PutItemWithContext(_ aws.Context, in *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if *in.TableName == f.failPut {
		return nil, errors.New("throttled")
	}
	t := f.table(*in.TableName)
	k := keyString(in.Item)
	if in.ConditionExpression != nil && strings.HasPrefix(*in.ConditionExpression, "attribute_not_exists") {
		if _, exists := t[k]; exists {
			return nil, conditionFailed()
		}
	}
	t[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItemWithContext(_ aws.Context, in *dynamodb.DeleteItemInput, _ ...request.Option) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.table(*in.TableName), keyString(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItemWithContext(_ aws.Context, in *dynamodb.UpdateItemInput, _ ...request.Option) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.table(*in.TableName)
	k := keyString(in.Key)
	expr := *in.UpdateExpression

	if strings.HasPrefix(expr, "ADD seq") {
		cur, ok := t[k]
		n := 0
		if ok && cur["seq"] != nil {
			n, _ = strconv.Atoi(*cur["seq"].N)
		}
		n++
		t[k] = item{"id": in.Key["id"], "seq": {N: aws.String(strconv.Itoa(n))}}
		return &dynamodb.UpdateItemOutput{Attributes: item{"seq": {N: aws.String(strconv.Itoa(n))}}}, nil
	}

	cur, ok := t[k]
	if !ok {
		return nil, conditionFailed()
	}
	for _, assign := range strings.Split(strings.TrimPrefix(expr, "SET "), ", ") {
		parts := strings.Split(assign, " = ")
		cur[*in.ExpressionAttributeNames[parts[0]]] = in.ExpressionAttributeValues[parts[1]]
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) QueryWithContext(_ aws.Context, in *dynamodb.QueryInput, _ ...request.Option) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := in.ExpressionAttributeValues
	var out []item
	for _, it := range f.table(*in.TableName) {
		if it["title"] == nil || it["start_key"] == nil {
			continue
		}
		start := *it["start_key"].S
		if *it["title"].S == *v[":title"].S && start >= *v[":from"].S && start <= *v[":to"].S {
			out = append(out, it)
		}
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func (f *fakeDynamo) DescribeTableWithContext(_ aws.Context, in *dynamodb.DescribeTableInput, _ ...request.Option) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tables[*in.TableName]; !ok {
		return nil, awserr.New(dynamodb.ErrCodeResourceNotFoundException, "not found", nil)
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

func (f *fakeDynamo) CreateTableWithContext(_ aws.Context, in *dynamodb.CreateTableInput, _ ...request.Option) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table(*in.TableName)
	f.created = append(f.created, *in.TableName)
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamo) WaitUntilTableExistsWithContext(aws.Context, *dynamodb.DescribeTableInput, ...request.WaiterOption) error {
	return nil
}

var testCfg = dynamo.Config{Region: "us-west-2", TableName: "events"}

func newEvent(title, url string, start time.Time) *entity.Event {
	return &entity.Event{
		SourceKind: "website", Title: title, Description: "A night of talks",
		StartDate: start, Location: "Hacker Lab", URL: url,
		Categories: []string{"Programming"}, RelevanceScore: 64,
		Status: entity.EventStatusDraft, ImportedAt: start,
	}
}

func TestEventRepo_CreateAndGet(t *testing.T) {
	fake := newFakeDynamo()
	repo := dynamo.NewEventRepo(fake, testCfg)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	ev := newEvent("Go Night", "https://example.com/e/1", start)
	id, err := repo.Create(ctx, ev)
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if id != 1 || ev.ID != 1 {
		t.Fatalf("Create id=%d ev.ID=%d, want 1", id, ev.ID)
	}

	second, err := repo.Create(ctx, newEvent("Rust Night", "https://example.com/e/2", start))
	if err != nil || second != 2 {
		t.Fatalf("second Create id=%d err=%v", second, err)
	}

	got, err := repo.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if diff := cmp.Diff(ev, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	missing, err := repo.Get(ctx, 99)
	if err != nil || missing != nil {
		t.Fatalf("Get missing = %v, %v", missing, err)
	}
}

func TestEventRepo_CreateDuplicateURL(t *testing.T) {
	repo := dynamo.NewEventRepo(newFakeDynamo(), testCfg)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	if _, err := repo.Create(ctx, newEvent("Go Night", "https://example.com/e/1", start)); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	_, err := repo.Create(ctx, newEvent("Go Night again", "https://example.com/e/1", start))
	if !errors.Is(err, entity.ErrDuplicate) {
		t.Fatalf("err=%v, want ErrDuplicate", err)
	}

	// events without a URL never collide
	for i := 0; i < 2; i++ {
		if _, err := repo.Create(ctx, newEvent("Untitled", "", start)); err != nil {
			t.Fatalf("Create without url err=%v", err)
		}
	}
}

func TestEventRepo_CreateReleasesURLOnFailure(t *testing.T) {
	fake := newFakeDynamo()
	repo := dynamo.NewEventRepo(fake, testCfg)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	fake.failPut = "events"
	if _, err := repo.Create(ctx, newEvent("Go Night", "https://example.com/e/1", start)); err == nil {
		t.Fatal("want error")
	}
	fake.failPut = ""

	if id, _ := repo.FindByURL(ctx, "https://example.com/e/1"); id != 0 {
		t.Fatalf("url still claimed by %d", id)
	}
	if _, err := repo.Create(ctx, newEvent("Go Night", "https://example.com/e/1", start)); err != nil {
		t.Fatalf("retry Create err=%v", err)
	}
}

func TestEventRepo_FindByURL(t *testing.T) {
	repo := dynamo.NewEventRepo(newFakeDynamo(), testCfg)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	id, _ := repo.Create(ctx, newEvent("Go Night", "https://example.com/e/1", start))

	tests := []struct {
		url  string
		want int64
	}{
		{"https://example.com/e/1", id},
		{"https://example.com/e/2", 0},
		{"", 0},
	}
	for _, tt := range tests {
		got, err := repo.FindByURL(ctx, tt.url)
		if err != nil || got != tt.want {
			t.Errorf("FindByURL(%q) = %d, %v; want %d", tt.url, got, err, tt.want)
		}
	}
}

func TestEventRepo_FindByTitleAndDate(t *testing.T) {
	repo := dynamo.NewEventRepo(newFakeDynamo(), testCfg)
	ctx := context.Background()
	loc := time.FixedZone("PST", -8*3600)
	start := time.Date(2026, 2, 14, 19, 30, 0, 0, loc)

	id, err := repo.Create(ctx, newEvent("Valentine Hack", "", start))
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}

	tests := []struct {
		name  string
		title string
		day   time.Time
		want  int64
	}{
		{"same day", "Valentine Hack", time.Date(2026, 2, 14, 8, 0, 0, 0, loc), id},
		{"next day", "Valentine Hack", time.Date(2026, 2, 15, 8, 0, 0, 0, loc), 0},
		{"other title", "Valentine Hackathon", time.Date(2026, 2, 14, 8, 0, 0, 0, loc), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindByTitleAndDate(ctx, tt.title, tt.day)
			if err != nil || got != tt.want {
				t.Fatalf("got %d, %v; want %d", got, err, tt.want)
			}
		})
	}
}

func TestEventRepo_Update(t *testing.T) {
	repo := dynamo.NewEventRepo(newFakeDynamo(), testCfg)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	ev := newEvent("Go Night", "https://example.com/e/1", start)
	id, _ := repo.Create(ctx, ev)
	if err := repo.UpdateSEO(ctx, id, entity.SEOMeta{Title: "Go", Description: "Go meetup"}); err != nil {
		t.Fatalf("UpdateSEO err=%v", err)
	}

	changed := newEvent("Go Night: Generics", "https://example.com/e/1", start.Add(time.Hour))
	changed.ID = id
	changed.Categories = nil
	if err := repo.Update(ctx, changed); err != nil {
		t.Fatalf("Update err=%v", err)
	}

	got, _ := repo.Get(ctx, id)
	if got.Title != "Go Night: Generics" || !got.StartDate.Equal(start.Add(time.Hour)) {
		t.Fatalf("content not updated: %+v", got)
	}
	if diff := cmp.Diff([]string{"Programming"}, got.Categories); diff != "" {
		t.Fatalf("categories (-want +got):\n%s", diff)
	}
	if got.SEOTitle != "Go" || got.SEODescription != "Go meetup" {
		t.Fatalf("SEO lost on update: %q %q", got.SEOTitle, got.SEODescription)
	}

	changed.ID = 42
	if err := repo.Update(ctx, changed); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("Update missing err=%v, want ErrNotFound", err)
	}
}

func TestEventRepo_TouchImportedAt(t *testing.T) {
	repo := dynamo.NewEventRepo(newFakeDynamo(), testCfg)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	id, _ := repo.Create(ctx, newEvent("Go Night", "https://example.com/e/1", start))
	later := start.Add(72 * time.Hour)
	if err := repo.TouchImportedAt(ctx, id, later); err != nil {
		t.Fatalf("TouchImportedAt err=%v", err)
	}
	got, _ := repo.Get(ctx, id)
	if !got.ImportedAt.Equal(later) {
		t.Fatalf("ImportedAt=%v, want %v", got.ImportedAt, later)
	}

	if err := repo.TouchImportedAt(ctx, 77, later); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("missing err=%v, want ErrNotFound", err)
	}
	if err := repo.UpdateSEO(ctx, 77, entity.SEOMeta{}); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("UpdateSEO missing err=%v, want ErrNotFound", err)
	}
}

func TestEventRepo_EnsureTables(t *testing.T) {
	fake := newFakeDynamo()
	repo := dynamo.NewEventRepo(fake, testCfg)

	if err := repo.EnsureTables(context.Background()); err != nil {
		t.Fatalf("EnsureTables err=%v", err)
	}
	if diff := cmp.Diff([]string{"events", "events_urls"}, fake.created); diff != "" {
		t.Fatalf("created (-want +got):\n%s", diff)
	}

	// second call finds both tables
	if err := repo.EnsureTables(context.Background()); err != nil {
		t.Fatalf("EnsureTables err=%v", err)
	}
	if len(fake.created) != 2 {
		t.Fatalf("tables recreated: %v", fake.created)
	}
}
