package indexer

import (
	"context"
	"strconv"
	"strings"

	"github.com/ledgerline/statement-gateway/internal/model"
	"github.com/ledgerline/statement-gateway/pkg/redis"
)

const (
	wordKeyPrefix = "idx:word:"
	txnKeyPrefix  = "idx:txn:"
)

const minTokenLen = 3

// KeywordIndex maintains a Redis-backed inverted index from description
// tokens to transaction IDs, so autocomplete-style lookups don't hit the
// database. Adds and removals are idempotent: re-applying the same event
// leaves the sets unchanged.
type KeywordIndex struct {
	redis redis.RedisAdapter
}

func NewKeywordIndex(redisAdapter redis.RedisAdapter) *KeywordIndex {
	return &KeywordIndex{redis: redisAdapter}
}

// Add indexes one transaction. It also records the token set under the
// transaction's own key so Remove can work after the row is gone from
// the database.
func (x *KeywordIndex) Add(ctx context.Context, txn *model.BankTransaction) error {
	tokens := Tokenize(txn.Description, txn.Counterparty, txn.Merchant, txn.Reference)
	if len(tokens) == 0 {
		return nil
	}

	id := strconv.FormatInt(txn.ID, 10)
	for _, tok := range tokens {
		if err := x.redis.SAdd(wordKeyPrefix+tok, id); err != nil {
			return err
		}
	}

	members := make([]interface{}, len(tokens))
	for i, tok := range tokens {
		members[i] = tok
	}
	return x.redis.SAdd(txnKeyPrefix+id, members...)
}

// Remove drops a transaction from every token set it was indexed under.
func (x *KeywordIndex) Remove(ctx context.Context, txnID int64) error {
	id := strconv.FormatInt(txnID, 10)

	tokens, err := x.redis.SMembers(txnKeyPrefix + id)
	if err != nil {
		return err
	}
	for _, tok := range tokens {
		if err := x.redis.Client().SRem(ctx, wordKeyPrefix+tok, id).Err(); err != nil {
			return err
		}
	}
	return x.redis.Del(txnKeyPrefix + id)
}

// Lookup returns the IDs of transactions indexed under a token.
func (x *KeywordIndex) Lookup(ctx context.Context, token string) ([]int64, error) {
	members, err := x.redis.SMembers(wordKeyPrefix + normalizeToken(token))
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if id, err := strconv.ParseInt(m, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Tokenize splits free-text transaction fields into lowercase index tokens,
// dropping short fragments and duplicates.
func Tokenize(fields ...string) []string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, field := range fields {
		for _, raw := range strings.FieldsFunc(field, func(r rune) bool {
			return !isTokenRune(r)
		}) {
			tok := normalizeToken(raw)
			if len(tok) < minTokenLen {
				continue
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isTokenRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
