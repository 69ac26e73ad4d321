package engine

import (
	"github.com/dgraph-io/ristretto/v2"

	"trigger-settings/internal/metadata"
	"trigger-settings/internal/varjson"
)

// BodyParser memoizes expected-body parsing per raw text. Parsing is a pure
// function of the text, so a cached value is always the value Parse would
// return. Cached values are shared and must not be mutated.
type BodyParser struct {
	cache *ristretto.Cache[string, parseResult]
}

type parseResult struct {
	value varjson.Value
	err   error
}

// NewBodyParser creates a parser whose cache holds roughly maxCost bytes of
// source text.
func NewBodyParser(maxCost int64) (*BodyParser, error) {
	if maxCost <= 0 {
		maxCost = 8 << 20
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, parseResult]{
		NumCounters: maxCost / 100 * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &BodyParser{cache: c}, nil
}

// Parse returns the parsed body of text, consulting the cache first.
func (p *BodyParser) Parse(text string) (varjson.Value, error) {
	if res, ok := p.cache.Get(text); ok {
		return res.value, res.err
	}
	v, err := varjson.Parse(text)
	p.cache.Set(text, parseResult{value: v, err: err}, int64(len(text))+1)
	return v, err
}

// ChangeExpectedBody is ChangeExpectedBody backed by the cache.
func (p *BodyParser) ChangeExpectedBody(current metadata.WebhookTrigger, rawText string) (metadata.WebhookTrigger, UpdateOptions, error) {
	return changeExpectedBody(current, rawText, p.Parse)
}

// Wait blocks until pending cache writes are applied.
func (p *BodyParser) Wait() {
	p.cache.Wait()
}

// Close releases the cache.
func (p *BodyParser) Close() {
	p.cache.Close()
}
