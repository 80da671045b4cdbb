package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"urbanstyle_assistant/internal/domain/entities"
	"urbanstyle_assistant/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultInvoicesTableName = "invoices"

type invoiceItem struct {
	ID            string `dynamodbav:"id"`
	InvoiceNumber string `dynamodbav:"invoice_number"`
	CustomerName  string `dynamodbav:"customer_name"`
	CustomerEmail string `dynamodbav:"customer_email"`
	Currency      string `dynamodbav:"currency"`
	GrandTotal    string `dynamodbav:"grand_total"`
	DraftJSON     string `dynamodbav:"draft_json"`
	CreatedAt     string `dynamodbav:"created_at"`
}

// InvoiceDynamoRepository persists finalized invoices in DynamoDB.
//
// Table requirements:
//   - PK: id (string, generated uuid assigned by the orchestrator)
//
// The full draft is stored as a JSON document; scalar columns are duplicated
// for querying. Finalized invoices are immutable, so there is no update path.

type InvoiceDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IInvoiceRepository = (*InvoiceDynamoRepository)(nil)

func NewInvoiceDynamoRepository(ddb *dynamodb.Client) *InvoiceDynamoRepository {
	return &InvoiceDynamoRepository{
		ddb:       ddb,
		tableName: getenvDefault("INVOICES_TABLE", defaultInvoicesTableName),
	}
}

func (r *InvoiceDynamoRepository) Save(ctx context.Context, rec entities.InvoiceRecord) (entities.InvoiceRecord, error) {
	it, err := toInvoiceItem(rec)
	if err != nil {
		return entities.InvoiceRecord{}, err
	}
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return entities.InvoiceRecord{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return entities.InvoiceRecord{}, err
	}
	return rec, nil
}

func (r *InvoiceDynamoRepository) GetByID(ctx context.Context, id string) (entities.InvoiceRecord, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.InvoiceRecord{}, err
	}
	if len(out.Item) == 0 {
		return entities.InvoiceRecord{}, nil
	}

	var it invoiceItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.InvoiceRecord{}, err
	}
	return fromInvoiceItem(it)
}

func toInvoiceItem(rec entities.InvoiceRecord) (invoiceItem, error) {
	draftJSON, err := json.Marshal(rec.Draft)
	if err != nil {
		return invoiceItem{}, err
	}
	return invoiceItem{
		ID:            rec.ID,
		InvoiceNumber: rec.Draft.InvoiceNumber,
		CustomerName:  rec.Draft.CustomerName,
		CustomerEmail: rec.Draft.CustomerEmail,
		Currency:      rec.Draft.Currency,
		GrandTotal:    strconv.FormatFloat(rec.GrandTotal, 'f', -1, 64),
		DraftJSON:     string(draftJSON),
		CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func fromInvoiceItem(it invoiceItem) (entities.InvoiceRecord, error) {
	var draft entities.InvoiceDraft
	if err := json.Unmarshal([]byte(it.DraftJSON), &draft); err != nil {
		return entities.InvoiceRecord{}, err
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	grandTotal, _ := strconv.ParseFloat(it.GrandTotal, 64)
	return entities.InvoiceRecord{
		ID:         it.ID,
		Draft:      draft,
		GrandTotal: grandTotal,
		CreatedAt:  createdAt,
	}, nil
}
