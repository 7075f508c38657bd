package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/avvvet/darts-services/internal/gamesvc/store"
	"github.com/avvvet/darts-services/internal/x01"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	maxBatchSize = 25

	playerIndex       = "PlayerIndex"
	authProviderIndex = "AuthProviderIndex"
)

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Store keeps every record kind in one table keyed by PK/SK.
//
//	GAME#<id>  GAME          game header
//	GAME#<id>  PLAYER#<pid>  roster entry, GSI1PK=PLAYER#<pid> on PlayerIndex
//	GAME#<id>  DART#<seq>    throw
//	USER#<uid> USER          user, AuthProviderUserId on AuthProviderIndex
type Store struct {
	client API
	table  string
}

var _ store.Store = (*Store)(nil)

func New(client API, table string) *Store {
	return &Store{client: client, table: table}
}

// NewFromEnv loads the default AWS config for region.
func NewFromEnv(ctx context.Context, region, table string) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(dynamodb.NewFromConfig(cfg), table), nil
}

func gameKey(gameID int64) string { return "GAME#" + strconv.FormatInt(gameID, 10) }
func userKey(userID string) string { return "USER#" + userID }
func playerKey(playerID string) string { return "PLAYER#" + playerID }
func dartKey(seq int) string       { return fmt.Sprintf("DART#%010d", seq) }

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func (s *Store) getItem(ctx context.Context, pk, sk string, out any) (bool, error) {
	res, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       key(pk, sk),
	})
	if err != nil {
		return false, fmt.Errorf("failed to get item from table '%s': %w", s.table, err)
	}
	if res.Item == nil {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s/%s: %w", pk, sk, err)
	}
	return true, nil
}

// query pages through every item matching in and unmarshals them into out.
func (s *Store) query(ctx context.Context, in *dynamodb.QueryInput, out any) error {
	var items []map[string]types.AttributeValue
	p := dynamodb.NewQueryPaginator(s.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to query table '%s': %w", s.table, err)
		}
		items = append(items, page.Items...)
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to unmarshal query result: %w", err)
	}
	return nil
}

func (s *Store) queryPrefix(ctx context.Context, pk, prefix string, out any) error {
	return s.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: pk},
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		},
	}, out)
}

func (s *Store) ReadGame(ctx context.Context, gameID int64) (x01.Game, error) {
	var rec gameRecord
	ok, err := s.getItem(ctx, gameKey(gameID), "GAME", &rec)
	if err != nil {
		return x01.Game{}, err
	}
	if !ok {
		return x01.Game{}, x01.ErrGameNotFound
	}
	return rec.game()
}

func (s *Store) ReadGamePlayers(ctx context.Context, gameID int64) ([]x01.Player, error) {
	var recs []playerRecord
	if err := s.queryPrefix(ctx, gameKey(gameID), "PLAYER#", &recs); err != nil {
		return nil, err
	}
	return players(recs), nil
}

func (s *Store) ReadGameDarts(ctx context.Context, gameID int64) ([]x01.Dart, error) {
	var recs []dartRecord
	if err := s.queryPrefix(ctx, gameKey(gameID), "DART#", &recs); err != nil {
		return nil, err
	}

	darts := make([]x01.Dart, 0, len(recs))
	for _, r := range recs {
		d, err := r.dart()
		if err != nil {
			return nil, err
		}
		darts = append(darts, d)
	}
	return darts, nil
}

func (s *Store) ReadPlayerGames(ctx context.Context, playerID string) ([]x01.Player, error) {
	var recs []playerRecord
	err := s.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(playerIndex),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: playerKey(playerID)},
		},
	}, &recs)
	if err != nil {
		return nil, err
	}
	return players(recs), nil
}

func (s *Store) ReadUser(ctx context.Context, userID string) (x01.User, error) {
	var rec userRecord
	ok, err := s.getItem(ctx, userKey(userID), "USER", &rec)
	if err != nil {
		return x01.User{}, err
	}
	if !ok {
		return x01.User{}, x01.ErrUserNotFound
	}
	return rec.user(), nil
}

// ReadUsers fetches users in BatchGetItem chunks. Duplicate ids are collapsed since DynamoDB rejects them.
func (s *Store) ReadUsers(ctx context.Context, userIDs []string) ([]x01.User, error) {
	seen := make(map[string]bool, len(userIDs))
	unique := userIDs[:0:0]
	for _, id := range userIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	userIDs = unique

	var out []x01.User
	for start := 0; start < len(userIDs); start += maxBatchSize {
		end := min(start+maxBatchSize, len(userIDs))

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range userIDs[start:end] {
			keys = append(keys, key(userKey(id), "USER"))
		}

		req := map[string]types.KeysAndAttributes{s.table: {Keys: keys}}
		for len(req) > 0 {
			res, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: req})
			if err != nil {
				return nil, fmt.Errorf("failed to batch get users from table '%s': %w", s.table, err)
			}
			var recs []userRecord
			if err := attributevalue.UnmarshalListOfMaps(res.Responses[s.table], &recs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal users: %w", err)
			}
			for _, r := range recs {
				out = append(out, r.user())
			}
			req = res.UnprocessedKeys
		}
	}
	return out, nil
}

func (s *Store) ReadUserByAuthProviderID(ctx context.Context, authProviderUserID string) (x01.User, error) {
	var recs []userRecord
	err := s.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(authProviderIndex),
		KeyConditionExpression: aws.String("AuthProviderUserId = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: authProviderUserID},
		},
	}, &recs)
	if err != nil {
		return x01.User{}, err
	}
	if len(recs) == 0 {
		return x01.User{}, x01.ErrUserNotFound
	}
	return recs[0].user(), nil
}

// ReadUserByConnectionID scans the table. Connection ids change too often to be worth an index.
func (s *Store) ReadUserByConnectionID(ctx context.Context, connectionID string) (x01.User, error) {
	if connectionID == "" {
		return x01.User{}, x01.ErrUserNotFound
	}

	p := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:        aws.String(s.table),
		FilterExpression: aws.String("SK = :sk AND ConnectionId = :conn"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sk":   &types.AttributeValueMemberS{Value: "USER"},
			":conn": &types.AttributeValueMemberS{Value: connectionID},
		},
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return x01.User{}, fmt.Errorf("failed to scan table '%s': %w", s.table, err)
		}
		if len(page.Items) == 0 {
			continue
		}
		var rec userRecord
		if err := attributevalue.UnmarshalMap(page.Items[0], &rec); err != nil {
			return x01.User{}, fmt.Errorf("failed to unmarshal user: %w", err)
		}
		return rec.user(), nil
	}
	return x01.User{}, x01.ErrUserNotFound
}

// Write batches headers, roster entries and users. Throws go one by one through a
// conditional put so that a sequence number held by another throw is refused.
func (s *Store) Write(ctx context.Context, b store.Batch) error {
	var requests []types.WriteRequest
	put := func(rec any) error {
		item, err := attributevalue.MarshalMap(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		return nil
	}

	for _, g := range b.Games {
		if err := s.putGame(ctx, g); err != nil {
			return err
		}
	}
	for _, p := range b.Players {
		if err := put(newPlayerRecord(p)); err != nil {
			return err
		}
	}
	for _, u := range b.Users {
		if err := put(newUserRecord(u)); err != nil {
			return err
		}
	}
	if err := s.batchWrite(ctx, requests); err != nil {
		return err
	}

	for _, d := range b.Darts {
		if err := s.putDart(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// putGame refuses to overwrite a stored header with an earlier status.
func (s *Store) putGame(ctx context.Context, g x01.Game) error {
	item, err := attributevalue.MarshalMap(newGameRecord(g))
	if err != nil {
		return fmt.Errorf("failed to marshal game: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(SK) OR #status <= :status"),
		ExpressionAttributeNames: map[string]string{
			"#status": "Status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberN{Value: strconv.Itoa(int(g.Status))},
		},
	})
	var failed *types.ConditionalCheckFailedException
	if errors.As(err, &failed) {
		return fmt.Errorf("%w: game %d has moved past %s", x01.ErrStaleGame, g.GameID, g.Status)
	}
	if err != nil {
		return fmt.Errorf("failed to put game %d: %w", g.GameID, err)
	}
	return nil
}

func (s *Store) putDart(ctx context.Context, d x01.Dart) error {
	item, err := attributevalue.MarshalMap(newDartRecord(d))
	if err != nil {
		return fmt.Errorf("failed to marshal dart: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(SK) OR Id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: d.ID.String()},
		},
	})
	var failed *types.ConditionalCheckFailedException
	if errors.As(err, &failed) {
		return fmt.Errorf("%w: throw %d of game %d already recorded", x01.ErrStaleGame, d.Seq, d.GameID)
	}
	if err != nil {
		return fmt.Errorf("failed to put dart in table '%s': %w", s.table, err)
	}
	return nil
}

func (s *Store) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	for i := 0; i < len(requests); i += maxBatchSize {
		end := min(i+maxBatchSize, len(requests))

		pending := map[string][]types.WriteRequest{s.table: requests[i:end]}
		for len(pending) > 0 {
			res, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return fmt.Errorf("failed to batch write items to table '%s': %w", s.table, err)
			}
			pending = res.UnprocessedItems
		}
	}
	return nil
}

func players(recs []playerRecord) []x01.Player {
	out := make([]x01.Player, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.player())
	}
	return out
}
