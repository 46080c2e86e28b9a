package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/healthdesk/scheduler/internal/timeutil"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(context.Context, *dynamodb.TransactWriteItemsInput, ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// appointmentRecord is the document shape stored in DynamoDB.
type appointmentRecord struct {
	ID          string `dynamodbav:"id"`
	DoctorID    string `dynamodbav:"doctorId"`
	PatientID   string `dynamodbav:"patientId"`
	Date        string `dynamodbav:"date"`
	Start       int    `dynamodbav:"startMin"`
	End         int    `dynamodbav:"endMin"`
	Type        string `dynamodbav:"type,omitempty"`
	Description string `dynamodbav:"description,omitempty"`
	Status      string `dynamodbav:"status"`
	CreatedAt   string `dynamodbav:"createdAt"`
	UpdatedAt   string `dynamodbav:"updatedAt"`
}

// DynamoRepository stores appointments as documents keyed by server-generated
// ids. Status changes are nested-path updates; multi-cancel is a single
// transactional write.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
}

// NewDynamoRepository builds a repository backed by the provided client.
func NewDynamoRepository(client dynamoAPI, tableName string) *DynamoRepository {
	if client == nil {
		panic("appointments: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("appointments: table name cannot be empty")
	}
	return &DynamoRepository{client: client, tableName: tableName}
}

// Create inserts a new document, refusing to overwrite an existing id.
func (r *DynamoRepository) Create(ctx context.Context, apt *Appointment) error {
	if apt.ID == "" {
		apt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	apt.CreatedAt = now
	apt.UpdatedAt = now

	item, err := attributevalue.MarshalMap(toRecord(apt))
	if err != nil {
		return fmt.Errorf("appointments: marshal document: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("appointments: put document: %w", err)
	}
	return nil
}

// GetByID loads one document.
func (r *DynamoRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       recordKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("appointments: get document: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	return unmarshalRecord(out.Item)
}

// Update overwrites the document, requiring that it already exists.
func (r *DynamoRepository) Update(ctx context.Context, apt *Appointment) error {
	apt.UpdatedAt = time.Now().UTC()
	item, err := attributevalue.MarshalMap(toRecord(apt))
	if err != nil {
		return fmt.Errorf("appointments: marshal document: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrNotFound
		}
		return fmt.Errorf("appointments: update document: %w", err)
	}
	return nil
}

// UpdateStatus patches only the status attribute of the document.
func (r *DynamoRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 recordKey(id),
		UpdateExpression:    aws.String("SET #status = :status, updatedAt = :updatedAt"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":    &types.AttributeValueMemberS{Value: string(status)},
			":updatedAt": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: update status: %w", err)
	}
	return unmarshalRecord(out.Attributes)
}

// CancelMany cancels every id in one TransactWriteItems call; either all
// documents flip to canceled or none do.
func (r *DynamoRepository) CancelMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	updatedAt := time.Now().UTC().Format(time.RFC3339Nano)
	items := make([]types.TransactWriteItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName:           aws.String(r.tableName),
				Key:                 recordKey(id),
				UpdateExpression:    aws.String("SET #status = :status, updatedAt = :updatedAt"),
				ConditionExpression: aws.String("attribute_exists(id)"),
				ExpressionAttributeNames: map[string]string{
					"#status": "status",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":status":    &types.AttributeValueMemberS{Value: string(StatusCanceled)},
					":updatedAt": &types.AttributeValueMemberS{Value: updatedAt},
				},
			},
		})
	}
	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			return ErrNotFound
		}
		return fmt.Errorf("appointments: cancel many: %w", err)
	}
	return nil
}

// Delete removes the document.
func (r *DynamoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 recordKey(id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrNotFound
		}
		return fmt.Errorf("appointments: delete document: %w", err)
	}
	return nil
}

// List scans the whole table; the snapshot is small enough for a clinic.
func (r *DynamoRepository) List(ctx context.Context) ([]Appointment, error) {
	return r.scan(ctx, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
}

// ListByPatient scans with a patient filter.
func (r *DynamoRepository) ListByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	return r.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("patientId = :patientId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":patientId": &types.AttributeValueMemberS{Value: patientID},
		},
	})
}

// ListInProgress scans with a status filter.
func (r *DynamoRepository) ListInProgress(ctx context.Context) ([]Appointment, error) {
	return r.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("#status = :status"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(StatusInProgress)},
		},
	})
}

func (r *DynamoRepository) scan(ctx context.Context, input *dynamodb.ScanInput) ([]Appointment, error) {
	out := make([]Appointment, 0)
	for {
		page, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan documents: %w", err)
		}
		for _, item := range page.Items {
			apt, err := unmarshalRecord(item)
			if err != nil {
				return nil, err
			}
			out = append(out, *apt)
		}
		if page.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
	sortAppointments(out)
	return out, nil
}

func recordKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func toRecord(apt *Appointment) appointmentRecord {
	return appointmentRecord{
		ID:          apt.ID,
		DoctorID:    apt.DoctorID,
		PatientID:   apt.PatientID,
		Date:        apt.Date.String(),
		Start:       int(apt.Start),
		End:         int(apt.End),
		Type:        apt.Type,
		Description: apt.Description,
		Status:      string(apt.Status),
		CreatedAt:   apt.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   apt.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func unmarshalRecord(item map[string]types.AttributeValue) (*Appointment, error) {
	var rec appointmentRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("appointments: unmarshal document: %w", err)
	}
	date, err := timeutil.ParseDate(rec.Date)
	if err != nil {
		return nil, err
	}
	status, err := ParseStatus(rec.Status)
	if err != nil {
		return nil, err
	}
	apt := &Appointment{
		ID:          rec.ID,
		DoctorID:    rec.DoctorID,
		PatientID:   rec.PatientID,
		Date:        date,
		Start:       timeutil.Minutes(rec.Start),
		End:         timeutil.Minutes(rec.End),
		Type:        rec.Type,
		Description: rec.Description,
		Status:      status,
	}
	if t, err := time.Parse(time.RFC3339Nano, rec.CreatedAt); err == nil {
		apt.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, rec.UpdatedAt); err == nil {
		apt.UpdatedAt = t
	}
	return apt, nil
}

var _ Repository = (*DynamoRepository)(nil)
