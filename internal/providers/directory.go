package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const directoryMaxResults = 50

var ErrDirectoryQuery = errors.New("DIRECTORY_QUERY_FAILED")

// DirectorySearcher serves local services from an Elasticsearch index of
// provider documents.
type DirectorySearcher struct {
	client *elasticsearch.Client
	index  string
}

func NewDirectorySearcher(client *elasticsearch.Client, index string) *DirectorySearcher {
	return &DirectorySearcher{client: client, index: index}
}

func (d *DirectorySearcher) Search(ctx context.Context, category Category, q Query) ([]Provider, error) {
	if category != CategoryLocal {
		return nil, fmt.Errorf("%w: directory only serves %s, got %s", ErrUnknownCategory, CategoryLocal, category)
	}

	body, err := json.Marshal(buildDirectoryQuery(q.To.City, q.To.State))
	if err != nil {
		return nil, err
	}

	size := directoryMaxResults
	req := esapi.SearchRequest{
		Index: []string{d.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, d.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryQuery, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryQuery, res.String())
	}

	var r directoryResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrDirectoryQuery, err)
	}

	out := make([]Provider, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		p := hit.Source
		if p.ID == "" {
			p.ID = hit.ID
		}
		out = append(out, p)
	}
	return out, nil
}

type directoryResponse struct {
	Hits struct {
		Hits []struct {
			ID     string   `json:"_id"`
			Source Provider `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func buildDirectoryQuery(city, state string) map[string]interface{} {
	filters := []interface{}{}
	if city != "" {
		filters = append(filters, map[string]interface{}{
			"match": map[string]interface{}{"city": city},
		})
	}
	if state != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"state": state},
		})
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filters,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"rating": map[string]interface{}{"order": "desc"}},
		},
	}
}
