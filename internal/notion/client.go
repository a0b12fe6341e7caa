package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// PageService is the subset of the Notion API the sink needs.
type PageService interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)

	// GetDatabase returns the database metadata, used to check access at startup.
	GetDatabase(ctx context.Context, databaseID string) (*notionapi.Database, error)
}

// Client is the PageService implementation backed by the Notion SDK.
type Client struct {
	client *notionapi.Client
}

// NewClient creates a new Client with the provided integration token.
func NewClient(token string) *Client {
	return &Client{
		client: notionapi.NewClient(notionapi.Token(token)),
	}
}

// CreatePage creates a new page in a Notion database with the given properties.
func (c *Client) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}

	page, err := c.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}
	return page, nil
}

func (c *Client) GetDatabase(ctx context.Context, databaseID string) (*notionapi.Database, error) {
	db, err := c.client.Database.Get(ctx, notionapi.DatabaseID(databaseID))
	if err != nil {
		return nil, fmt.Errorf("GetDatabase: %w", err)
	}
	return db, nil
}
