// Package dynamo is an alternative event store on DynamoDB.
//
// Events live in one table keyed by a numeric id. A reserved item with id 0
// holds the id sequence. URL uniqueness is enforced by a second table keyed
// by url, written with a condition before the event item.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/repository"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

const (
	titleIndex  = "title-start-index"
	sequenceID  = "0"
	sortKeyTime = "2006-01-02T15:04:05Z"
)

// Config names the tables and the endpoint.
type Config struct {
	Region    string
	TableName string
	// Endpoint points at DynamoDB Local when set.
	Endpoint string
}

// URLTable is the name of the URL lock table.
func (c Config) URLTable() string { return c.TableName + "_urls" }

type eventRecord struct {
	ID             int64     `dynamodbav:"id"`
	SourceID       int64     `dynamodbav:"source_id"`
	SourceKind     string    `dynamodbav:"source_kind"`
	Title          string    `dynamodbav:"title"`
	Description    string    `dynamodbav:"description"`
	StartKey       string    `dynamodbav:"start_key"`
	StartDate      time.Time `dynamodbav:"start_date"`
	EndDate        time.Time `dynamodbav:"end_date"`
	Location       string    `dynamodbav:"location"`
	Organizer      string    `dynamodbav:"organizer"`
	URL            string    `dynamodbav:"url"`
	ImageURL       string    `dynamodbav:"image_url"`
	ExternalID     string    `dynamodbav:"external_id"`
	Categories     []string  `dynamodbav:"categories"`
	RelevanceScore int       `dynamodbav:"relevance_score"`
	Status         string    `dynamodbav:"status"`
	SEOTitle       string    `dynamodbav:"seo_title"`
	SEODescription string    `dynamodbav:"seo_description"`
	ImportedAt     time.Time `dynamodbav:"imported_at"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
}

func toRecord(ev *entity.Event) eventRecord {
	return eventRecord{
		ID: ev.ID, SourceID: ev.SourceID, SourceKind: ev.SourceKind,
		Title: ev.Title, Description: ev.Description,
		StartKey: startKey(ev.StartDate), StartDate: ev.StartDate, EndDate: ev.EndDate,
		Location: ev.Location, Organizer: ev.Organizer, URL: ev.URL, ImageURL: ev.ImageURL,
		ExternalID: ev.ExternalID, Categories: ev.Categories, RelevanceScore: ev.RelevanceScore,
		Status: string(ev.Status), SEOTitle: ev.SEOTitle, SEODescription: ev.SEODescription,
		ImportedAt: ev.ImportedAt, CreatedAt: ev.CreatedAt, UpdatedAt: ev.UpdatedAt,
	}
}

func (r eventRecord) toEntity() *entity.Event {
	return &entity.Event{
		ID: r.ID, SourceID: r.SourceID, SourceKind: r.SourceKind,
		Title: r.Title, Description: r.Description, StartDate: r.StartDate, EndDate: r.EndDate,
		Location: r.Location, Organizer: r.Organizer, URL: r.URL, ImageURL: r.ImageURL,
		ExternalID: r.ExternalID, Categories: r.Categories, RelevanceScore: r.RelevanceScore,
		Status: entity.EventStatus(r.Status), SEOTitle: r.SEOTitle, SEODescription: r.SEODescription,
		ImportedAt: r.ImportedAt, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func startKey(t time.Time) string {
	return t.UTC().Format(sortKeyTime)
}

// EventRepo implements repository.EventRepository.
type EventRepo struct {
	client dynamodbiface.DynamoDBAPI
	cfg    Config
	now    func() time.Time
}

// New creates a session for cfg and returns the repository.
func New(cfg Config) (*EventRepo, error) {
	awsConfig := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewEventRepo(dynamodb.New(sess), cfg), nil
}

// NewEventRepo wraps an existing client.
func NewEventRepo(client dynamodbiface.DynamoDBAPI, cfg Config) *EventRepo {
	return &EventRepo{client: client, cfg: cfg, now: time.Now}
}

var _ repository.EventRepository = (*EventRepo)(nil)

func idKey(id int64) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{"id": {N: aws.String(strconv.FormatInt(id, 10))}}
}

func isConditionFailed(err error) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
}

func (r *EventRepo) Get(ctx context.Context, id int64) (*entity.Event, error) {
	out, err := r.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.cfg.TableName),
		Key:       idKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var rec eventRecord
	if err := dynamodbattribute.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("Get: unmarshal: %w", err)
	}
	return rec.toEntity(), nil
}

func (r *EventRepo) FindByURL(ctx context.Context, url string) (int64, error) {
	if url == "" {
		return 0, nil
	}
	out, err := r.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.cfg.URLTable()),
		Key:       map[string]*dynamodb.AttributeValue{"url": {S: aws.String(url)}},
	})
	if err != nil {
		return 0, fmt.Errorf("FindByURL: %w", err)
	}
	if out.Item == nil || out.Item["event_id"] == nil || out.Item["event_id"].N == nil {
		return 0, nil
	}
	id, err := strconv.ParseInt(*out.Item["event_id"].N, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("FindByURL: %w", err)
	}
	return id, nil
}

func (r *EventRepo) FindByTitleAndDate(ctx context.Context, title string, day time.Time) (int64, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1).Add(-time.Second)
	out, err := r.client.QueryWithContext(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.cfg.TableName),
		IndexName:              aws.String(titleIndex),
		KeyConditionExpression: aws.String("#title = :title AND #start BETWEEN :from AND :to"),
		ExpressionAttributeNames: map[string]*string{
			"#title": aws.String("title"),
			"#start": aws.String("start_key"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":title": {S: aws.String(title)},
			":from":  {S: aws.String(startKey(from))},
			":to":    {S: aws.String(startKey(to))},
		},
		Limit: aws.Int64(1),
	})
	if err != nil {
		return 0, fmt.Errorf("FindByTitleAndDate: %w", err)
	}
	if len(out.Items) == 0 {
		return 0, nil
	}
	var rec eventRecord
	if err := dynamodbattribute.UnmarshalMap(out.Items[0], &rec); err != nil {
		return 0, fmt.Errorf("FindByTitleAndDate: unmarshal: %w", err)
	}
	return rec.ID, nil
}

// nextID increments the sequence item and returns the new value.
func (r *EventRepo) nextID(ctx context.Context) (int64, error) {
	out, err := r.client.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.cfg.TableName),
		Key:              map[string]*dynamodb.AttributeValue{"id": {N: aws.String(sequenceID)}},
		UpdateExpression: aws.String("ADD seq :one"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":one": {N: aws.String("1")},
		},
		ReturnValues: aws.String(dynamodb.ReturnValueUpdatedNew),
	})
	if err != nil {
		return 0, err
	}
	seq := out.Attributes["seq"]
	if seq == nil || seq.N == nil {
		return 0, errors.New("sequence attribute missing")
	}
	return strconv.ParseInt(*seq.N, 10, 64)
}

// Create allocates an id, claims the URL and writes the event. A claimed URL
// yields entity.ErrDuplicate.
func (r *EventRepo) Create(ctx context.Context, event *entity.Event) (int64, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("Create: next id: %w", err)
	}

	if event.URL != "" {
		_, err := r.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.cfg.URLTable()),
			Item: map[string]*dynamodb.AttributeValue{
				"url":      {S: aws.String(event.URL)},
				"event_id": {N: aws.String(strconv.FormatInt(id, 10))},
			},
			ConditionExpression: aws.String("attribute_not_exists(#url)"),
			ExpressionAttributeNames: map[string]*string{
				"#url": aws.String("url"),
			},
		})
		if isConditionFailed(err) {
			return 0, fmt.Errorf("Create: %w", entity.ErrDuplicate)
		}
		if err != nil {
			return 0, fmt.Errorf("Create: claim url: %w", err)
		}
	}

	now := r.now()
	rec := toRecord(event)
	rec.ID = id
	rec.CreatedAt = now
	rec.UpdatedAt = now
	item, err := dynamodbattribute.MarshalMap(rec)
	if err != nil {
		return 0, fmt.Errorf("Create: marshal: %w", err)
	}
	if _, err := r.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.cfg.TableName),
		Item:      item,
	}); err != nil {
		if event.URL != "" {
			_, _ = r.client.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(r.cfg.URLTable()),
				Key:       map[string]*dynamodb.AttributeValue{"url": {S: aws.String(event.URL)}},
			})
		}
		return 0, fmt.Errorf("Create: %w", err)
	}

	event.ID = id
	event.CreatedAt = now
	event.UpdatedAt = now
	return id, nil
}

// Update rewrites the content attributes of an existing event. Status and SEO
// are left alone; categories are replaced only when event carries some.
func (r *EventRepo) Update(ctx context.Context, event *entity.Event) error {
	current, err := r.Get(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if current == nil {
		return fmt.Errorf("Update: %w", entity.ErrNotFound)
	}

	current.Title = event.Title
	current.Description = event.Description
	current.StartDate = event.StartDate
	current.EndDate = event.EndDate
	current.Location = event.Location
	current.Organizer = event.Organizer
	current.ImageURL = event.ImageURL
	current.RelevanceScore = event.RelevanceScore
	current.ImportedAt = event.ImportedAt
	if len(event.Categories) > 0 {
		current.Categories = event.Categories
	}
	current.UpdatedAt = r.now()

	item, err := dynamodbattribute.MarshalMap(toRecord(current))
	if err != nil {
		return fmt.Errorf("Update: marshal: %w", err)
	}
	if _, err := r.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.cfg.TableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return nil
}

func (r *EventRepo) TouchImportedAt(ctx context.Context, id int64, t time.Time) error {
	return r.set(ctx, "TouchImportedAt", id, map[string]any{"imported_at": t})
}

func (r *EventRepo) UpdateSEO(ctx context.Context, id int64, meta entity.SEOMeta) error {
	return r.set(ctx, "UpdateSEO", id, map[string]any{
		"seo_title":       meta.Title,
		"seo_description": meta.Description,
		"updated_at":      r.now(),
	})
}

// set assigns attrs on an existing item.
func (r *EventRepo) set(ctx context.Context, op string, id int64, attrs map[string]any) error {
	names := make(map[string]*string, len(attrs))
	values := make(map[string]*dynamodb.AttributeValue, len(attrs))
	expr := ""
	i := 0
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		av, err := dynamodbattribute.Marshal(attrs[name])
		if err != nil {
			return fmt.Errorf("%s: marshal %s: %w", op, name, err)
		}
		n, v := fmt.Sprintf("#a%d", i), fmt.Sprintf(":v%d", i)
		names[n] = aws.String(name)
		values[v] = av
		if expr != "" {
			expr += ", "
		}
		expr += n + " = " + v
		i++
	}

	_, err := r.client.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.cfg.TableName),
		Key:                       idKey(id),
		UpdateExpression:          aws.String("SET " + expr),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("%s: %w", op, entity.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
