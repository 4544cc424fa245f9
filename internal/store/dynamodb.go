package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"flashdeck/internal/deck"
)

const (
	// DynamoOwnerIndex is the GSI keyed by owner_id.
	DynamoOwnerIndex = "owner_id-index"
	// DynamoParentIndex is the GSI keyed by parent_ref ("<owner>#<parent>").
	DynamoParentIndex = "parent_ref-index"

	// maxTransactItems is DynamoDB's limit on items per TransactWriteItems call.
	maxTransactItems = 100

	rootRef = "ROOT"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

var _ DynamoAPI = (*dynamodb.Client)(nil)

// DynamoStore keeps one item per deck in a DynamoDB table.
//
// Table layout:
//
//	hash key   id          (S)
//	GSI        owner_id-index    hash owner_id   (S), projection ALL
//	GSI        parent_ref-index  hash parent_ref (S), projection KEYS_ONLY or ALL
//
// parent_ref is "<owner>#<parent>" with ROOT standing in for a root deck.
// Unowned decks carry neither index attribute and are invisible to GetAll.
type DynamoStore struct {
	client DynamoAPI
	table  string
}

var _ deck.Store = (*DynamoStore)(nil)

// NewDynamoStore creates a store over an existing table.
func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

type dynamoCard struct {
	ID        string    `dynamodbav:"id"`
	Question  string    `dynamodbav:"question"`
	Answer    string    `dynamodbav:"answer"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

type dynamoRecord struct {
	ID          string       `dynamodbav:"id"`
	OwnerID     string       `dynamodbav:"owner_id,omitempty"`
	ParentID    string       `dynamodbav:"parent_id"`
	ParentRef   string       `dynamodbav:"parent_ref,omitempty"`
	Title       string       `dynamodbav:"title"`
	Description string       `dynamodbav:"description"`
	Color       string       `dynamodbav:"color"`
	Cards       []dynamoCard `dynamodbav:"cards"`
	CreatedAt   time.Time    `dynamodbav:"created_at"`
	UpdatedAt   time.Time    `dynamodbav:"updated_at"`
}

func parentRef(ownerID, parentID string) string {
	if parentID == "" {
		parentID = rootRef
	}
	return ownerID + "#" + parentID
}

func toRecord(d *deck.Deck) dynamoRecord {
	r := dynamoRecord{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		ParentID:    d.ParentID,
		Title:       d.Title,
		Description: d.Description,
		Color:       d.Color,
		Cards:       make([]dynamoCard, len(d.Cards)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.OwnerID != "" {
		r.ParentRef = parentRef(d.OwnerID, d.ParentID)
	}
	for i, c := range d.Cards {
		r.Cards[i] = dynamoCard(c)
	}
	return r
}

func (r dynamoRecord) toDeck() *deck.Deck {
	d := &deck.Deck{
		ID:          r.ID,
		ParentID:    r.ParentID,
		Title:       r.Title,
		Description: r.Description,
		Color:       r.Color,
		OwnerID:     r.OwnerID,
		Cards:       make([]deck.Card, len(r.Cards)),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	for i, c := range r.Cards {
		d.Cards[i] = deck.Card(c)
	}
	return d
}

func (s *DynamoStore) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func (s *DynamoStore) marshal(d *deck.Deck) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(toRecord(d))
	if err != nil {
		return nil, fmt.Errorf("marshalling deck %s: %w", d.ID, err)
	}
	return item, nil
}

func (s *DynamoStore) GetAll(ctx context.Context, ownerID string) ([]*deck.Deck, error) {
	decks := make([]*deck.Deck, 0)
	if ownerID == "" {
		return decks, nil
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(DynamoOwnerIndex),
		KeyConditionExpression: aws.String("owner_id = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: ownerID},
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("querying decks for owner: %w", err)
		}
		var records []dynamoRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &records); err != nil {
			return nil, fmt.Errorf("unmarshalling decks: %w", err)
		}
		for _, r := range records {
			decks = append(decks, r.toDeck())
		}
	}
	return decks, nil
}

func (s *DynamoStore) GetByID(ctx context.Context, id string) (*deck.Deck, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting deck %s: %w", id, err)
	}
	if len(result.Item) == 0 {
		return nil, deck.ErrNotFound
	}

	var r dynamoRecord
	if err := attributevalue.UnmarshalMap(result.Item, &r); err != nil {
		return nil, fmt.Errorf("unmarshalling deck %s: %w", id, err)
	}
	return r.toDeck(), nil
}

// CountByParent counts through the parent_ref index without fetching items.
func (s *DynamoStore) CountByParent(ctx context.Context, ownerID, parentID string) (int, error) {
	if ownerID == "" {
		return 0, deck.ErrUnsupported
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(DynamoParentIndex),
		KeyConditionExpression: aws.String("parent_ref = :ref"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ref": &types.AttributeValueMemberS{Value: parentRef(ownerID, parentID)},
		},
		Select: types.SelectCount,
	})
	total := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("counting children: %w", err)
		}
		total += int(page.Count)
	}
	return total, nil
}

func (s *DynamoStore) Save(ctx context.Context, d *deck.Deck) error {
	item, err := s.marshal(d)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("putting deck %s: %w", d.ID, err)
	}
	return nil
}

// SaveBatch writes up to 100 decks in one transaction. Larger batches are
// rejected rather than split, since split transactions would not be atomic.
func (s *DynamoStore) SaveBatch(ctx context.Context, decks []*deck.Deck) error {
	decks = lastByID(decks)
	switch {
	case len(decks) == 0:
		return nil
	case len(decks) == 1:
		return s.Save(ctx, decks[0])
	case len(decks) > maxTransactItems:
		return fmt.Errorf("batch of %d decks exceeds the %d item transaction limit", len(decks), maxTransactItems)
	}

	items := make([]types.TransactWriteItem, 0, len(decks))
	for _, d := range decks {
		item, err := s.marshal(d)
		if err != nil {
			return err
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.table),
				Item:      item,
			},
		})
	}
	return s.transact(ctx, items)
}

func (s *DynamoStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(id),
	})
	if err != nil {
		return fmt.Errorf("deleting deck %s: %w", id, err)
	}
	return nil
}

// DeleteBatch removes up to 100 decks in one transaction.
func (s *DynamoStore) DeleteBatch(ctx context.Context, ids []string) error {
	ids = uniqueIDs(ids)
	switch {
	case len(ids) == 0:
		return nil
	case len(ids) == 1:
		return s.Delete(ctx, ids[0])
	case len(ids) > maxTransactItems:
		return fmt.Errorf("batch of %d deletes exceeds the %d item transaction limit", len(ids), maxTransactItems)
	}

	items := make([]types.TransactWriteItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(s.table),
				Key:       s.key(id),
			},
		})
	}
	return s.transact(ctx, items)
}

func (s *DynamoStore) transact(ctx context.Context, items []types.TransactWriteItem) error {
	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		var reasons []string
		for _, r := range txErr.CancellationReasons {
			if r.Code != nil && *r.Code != "None" {
				reasons = append(reasons, *r.Code)
			}
		}
		return fmt.Errorf("transaction cancelled (%s): %w", strings.Join(reasons, ", "), err)
	}
	return fmt.Errorf("transaction failed: %w", err)
}

func (s *DynamoStore) Close() error { return nil }

// lastByID drops earlier duplicates; a transaction may touch each item once.
func lastByID(decks []*deck.Deck) []*deck.Deck {
	pos := make(map[string]int, len(decks))
	out := make([]*deck.Deck, 0, len(decks))
	for _, d := range decks {
		if i, ok := pos[d.ID]; ok {
			out[i] = d
			continue
		}
		pos[d.ID] = len(out)
		out = append(out, d)
	}
	return out
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
