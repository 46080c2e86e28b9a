package doctors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/healthdesk/scheduler/internal/schedule"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// doctorRecord is the document shape stored in DynamoDB. The availability
// calendar types carry custom JSON encodings, so the document stores the
// whole calendar as one JSON blob instead of a nested attribute tree.
type doctorRecord struct {
	ID           string `dynamodbav:"id"`
	Name         string `dynamodbav:"name"`
	Email        string `dynamodbav:"email,omitempty"`
	Specialty    string `dynamodbav:"specialty,omitempty"`
	Availability string `dynamodbav:"availability"`
	CreatedAt    string `dynamodbav:"createdAt"`
}

// DynamoRepository stores doctors as documents keyed by server-generated ids.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
}

// NewDynamoRepository builds a repository backed by the provided client.
func NewDynamoRepository(client dynamoAPI, tableName string) *DynamoRepository {
	if client == nil {
		panic("doctors: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("doctors: table name cannot be empty")
	}
	return &DynamoRepository{client: client, tableName: tableName}
}

// Create inserts a new document, refusing to overwrite an existing id.
func (r *DynamoRepository) Create(ctx context.Context, d *Doctor) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	rec, err := toDoctorRecord(d)
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("doctors: marshal document: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("doctors: put document: %w", err)
	}
	return nil
}

// GetByID loads one document.
func (r *DynamoRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       doctorKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("doctors: get document: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	return unmarshalDoctorRecord(out.Item)
}

// List scans the whole table; clinic rosters stay small.
func (r *DynamoRepository) List(ctx context.Context) ([]Doctor, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(r.tableName)}
	out := make([]Doctor, 0)
	for {
		page, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("doctors: scan documents: %w", err)
		}
		for _, item := range page.Items {
			d, err := unmarshalDoctorRecord(item)
			if err != nil {
				return nil, err
			}
			out = append(out, *d)
		}
		if page.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the document.
func (r *DynamoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 doctorKey(id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrNotFound
		}
		return fmt.Errorf("doctors: delete document: %w", err)
	}
	return nil
}

// UpdateAvailability patches only the availability attribute.
func (r *DynamoRepository) UpdateAvailability(ctx context.Context, id string, av *schedule.Availability) (*Doctor, error) {
	doc, err := json.Marshal(av)
	if err != nil {
		return nil, fmt.Errorf("doctors: encode availability: %w", err)
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 doctorKey(id),
		UpdateExpression:    aws.String("SET availability = :availability"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":availability": &types.AttributeValueMemberS{Value: string(doc)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("doctors: update availability: %w", err)
	}
	return unmarshalDoctorRecord(out.Attributes)
}

func doctorKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func toDoctorRecord(d *Doctor) (*doctorRecord, error) {
	doc, err := json.Marshal(&d.Availability)
	if err != nil {
		return nil, fmt.Errorf("doctors: encode availability: %w", err)
	}
	return &doctorRecord{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		Specialty:    d.Specialty,
		Availability: string(doc),
		CreatedAt:    d.CreatedAt.Format(time.RFC3339Nano),
	}, nil
}

func unmarshalDoctorRecord(item map[string]types.AttributeValue) (*Doctor, error) {
	var rec doctorRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("doctors: unmarshal document: %w", err)
	}
	d := &Doctor{
		ID:        rec.ID,
		Name:      rec.Name,
		Email:     rec.Email,
		Specialty: rec.Specialty,
	}
	if rec.Availability != "" {
		if err := json.Unmarshal([]byte(rec.Availability), &d.Availability); err != nil {
			return nil, fmt.Errorf("doctors: decode availability: %w", err)
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, rec.CreatedAt); err == nil {
		d.CreatedAt = t
	}
	return d, nil
}

var _ Repository = (*DynamoRepository)(nil)
