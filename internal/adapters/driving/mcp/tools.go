package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driving"
)

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct{}

// DocumentInfo represents one document in tool output.
type DocumentInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Link string `json:"link,omitempty"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentInfo `json:"documents"`
	Count     int            `json:"count"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	ID string `json:"id" jsonschema:"the store ID of the document to fetch"`
}

// GetDocumentOutput is the output schema for the get_document tool.
type GetDocumentOutput struct {
	DocumentInfo
	Text string `json:"text"`
}

// ImportTextInput is the input schema for the import_text tool.
type ImportTextInput struct {
	Name string `json:"name" jsonschema:"the document name"`
	Text string `json:"text" jsonschema:"the document content to ingest"`
	Type string `json:"type,omitempty" jsonschema:"document type: plain, markdown, code or documentation (default plain)"`
}

// ImportTextOutput is the output schema for the import_text tool.
type ImportTextOutput struct {
	ID     string `json:"id"`
	Chunks int    `json:"chunks"`
}

// importChunkUnits and importChunkOverlap are the fixed chunk settings
// for tool-driven imports.
const (
	importChunkUnits   = 100
	importChunkOverlap = 50
)

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all documents in the store",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Fetch a document's metadata and full text by ID",
	}, s.handleGetDocument)

	if s.ports.Ingestor != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "import_text",
			Description: "Ingest a text document through the import pipeline",
		}, s.handleImportText)
	}
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Catalog.ListDocuments(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentInfo, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = DocumentInfo{
			ID:   docs[i].ID,
			Name: docs[i].Name,
			Type: string(docs[i].Type),
			Link: docs[i].Link,
		}
	}

	return nil, output, nil
}

// handleGetDocument handles the get_document tool invocation.
func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, GetDocumentOutput, error) {
	doc, err := s.ports.Catalog.GetDocument(ctx, input.ID)
	if err != nil {
		return nil, GetDocumentOutput{}, err
	}

	return nil, GetDocumentOutput{
		DocumentInfo: DocumentInfo{
			ID:   doc.ID,
			Name: doc.Name,
			Type: string(doc.Type),
			Link: doc.Link,
		},
		Text: doc.Text,
	}, nil
}

// handleImportText handles the import_text tool invocation.
func (s *Server) handleImportText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ImportTextInput,
) (*mcp.CallToolResult, ImportTextOutput, error) {
	docType := domain.DocTypePlain
	if input.Type != "" {
		parsed, err := domain.ParseDocumentType(input.Type)
		if err != nil {
			return nil, ImportTextOutput{}, err
		}
		docType = parsed
	}

	result, err := s.ports.Ingestor.ImportBatch(ctx, driving.ImportRequest{
		Inputs:       []domain.RawInput{domain.TextInput(input.Name, input.Text)},
		Type:         docType,
		ChunkUnits:   importChunkUnits,
		ChunkOverlap: importChunkOverlap,
	})
	if err != nil {
		return nil, ImportTextOutput{}, err
	}

	// A single-input batch with no batch error either produced one
	// document or recorded one read/chunk failure.
	if len(result.Documents) == 0 {
		if len(result.ReadFailures) > 0 {
			return nil, ImportTextOutput{}, result.ReadFailures[0].Err
		}
		if len(result.ChunkFailures) > 0 {
			return nil, ImportTextOutput{}, result.ChunkFailures[0].Err
		}
		return nil, ImportTextOutput{}, fmt.Errorf("import produced no document")
	}

	doc := result.Documents[0]
	return nil, ImportTextOutput{
		ID:     doc.ID,
		Chunks: len(doc.Chunks),
	}, nil
}
