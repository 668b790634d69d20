package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/plcworks/plchub-backend/internal/data/repos"
	types "github.com/plcworks/plchub-backend/internal/domain"
	"github.com/plcworks/plchub-backend/internal/platform/dbctx"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
)

// TemplateLogic is one leaf of the template tree.
type TemplateLogic struct {
	LogicID   string `json:"logic_id"`
	LogicName string `json:"logic_name"`
}

type TemplateSubFolder struct {
	Name   string          `json:"name"`
	Logics []TemplateLogic `json:"logics"`
}

type TemplateFolder struct {
	FolderID   string              `json:"folder_id"`
	FolderName string              `json:"folder_name"`
	SubFolders []TemplateSubFolder `json:"sub_folders,omitempty"`
	Logics     []TemplateLogic     `json:"logics,omitempty"`
}

// TemplateTree is the folder hierarchy declared by a program's manifest.
type TemplateTree struct {
	PgmID       string           `json:"pgm_id"`
	Folders     []TemplateFolder `json:"folders"`
	TotalLogics int              `json:"total_logics"`
}

// TemplateSummary pairs a program with its template row count.
type TemplateSummary struct {
	PgmID string `json:"pgm_id"`
	Count int64  `json:"count"`
}

// TemplateService owns the pgm_template rows. A program's rows always
// mirror its latest manifest: re-upload deletes and recreates them in
// one transaction.
type TemplateService interface {
	DocumentProcessor
	List(dbc dbctx.Context, pgmID string) ([]*types.PgmTemplate, error)
	Search(dbc dbctx.Context, pgmID, keyword string) ([]*types.PgmTemplate, error)
	Tree(dbc dbctx.Context, pgmID string) (*TemplateTree, error)
	Summaries(dbc dbctx.Context) ([]TemplateSummary, error)
	Delete(dbc dbctx.Context, pgmID string) (int64, error)
}

type templateService struct {
	db        *gorm.DB
	log       *logger.Logger
	templates repos.TemplateRepo
}

func NewTemplateService(db *gorm.DB, baseLog *logger.Logger, templateRepo repos.TemplateRepo) TemplateService {
	return &templateService{
		db:        db,
		log:       baseLog.With("service", "TemplateService"),
		templates: templateRepo,
	}
}

// Process replaces the program's template rows with the manifest's rows.
// It runs as the registered processor for manifest documents, inside
// the upload transaction.
func (ts *templateService) Process(dbc dbctx.Context, doc *types.Document, manifest *ManifestResult) error {
	if manifest == nil {
		return fmt.Errorf("manifest result missing for document %s", doc.DocumentID)
	}

	deleted, err := ts.templates.DeleteByProgram(dbc.Ctx, dbc.Tx, doc.PgmID)
	if err != nil {
		return fmt.Errorf("delete old template rows: %w", err)
	}

	rows := make([]*types.PgmTemplate, 0, len(manifest.Rows))
	for _, r := range manifest.Rows {
		row := &types.PgmTemplate{
			DocumentID: doc.DocumentID,
			PgmID:      doc.PgmID,
			FolderID:   r.FolderID,
			FolderName: r.FolderName,
			LogicID:    r.LogicID,
			LogicName:  r.LogicName,
		}
		if r.SubFolderName != "" {
			sub := r.SubFolderName
			row.SubFolderName = &sub
		}
		if doc.UserID != "" {
			user := doc.UserID
			row.CreateUser = &user
		}
		rows = append(rows, row)
	}
	if _, err := ts.templates.BulkCreate(dbc.Ctx, dbc.Tx, rows); err != nil {
		return fmt.Errorf("insert template rows: %w", err)
	}

	ts.log.Info("template rows replaced", "pgm_id", doc.PgmID, "deleted", deleted, "inserted", len(rows))
	return nil
}

func (ts *templateService) List(dbc dbctx.Context, pgmID string) ([]*types.PgmTemplate, error) {
	rows, err := ts.templates.ListByProgram(dbc.Ctx, dbc.Tx, pgmID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.ErrTemplateNotFound
	}
	return rows, nil
}

func (ts *templateService) Search(dbc dbctx.Context, pgmID, keyword string) ([]*types.PgmTemplate, error) {
	return ts.templates.Search(dbc.Ctx, dbc.Tx, pgmID, keyword)
}

// Tree groups the flat template rows into folder / sub folder / logic.
// Folder order follows first appearance in the stored row order.
func (ts *templateService) Tree(dbc dbctx.Context, pgmID string) (*TemplateTree, error) {
	rows, err := ts.List(dbc, pgmID)
	if err != nil {
		return nil, err
	}

	tree := &TemplateTree{PgmID: pgmID}
	folderIdx := map[string]int{}
	subIdx := map[string]int{}

	for _, row := range rows {
		fi, ok := folderIdx[row.FolderID]
		if !ok {
			tree.Folders = append(tree.Folders, TemplateFolder{
				FolderID:   row.FolderID,
				FolderName: row.FolderName,
			})
			fi = len(tree.Folders) - 1
			folderIdx[row.FolderID] = fi
		}
		folder := &tree.Folders[fi]

		logic := TemplateLogic{LogicID: row.LogicID, LogicName: row.LogicName}
		tree.TotalLogics++

		if row.SubFolderName == nil || *row.SubFolderName == "" {
			folder.Logics = append(folder.Logics, logic)
			continue
		}

		subKey := row.FolderID + "\x00" + *row.SubFolderName
		si, ok := subIdx[subKey]
		if !ok {
			folder.SubFolders = append(folder.SubFolders, TemplateSubFolder{Name: *row.SubFolderName})
			si = len(folder.SubFolders) - 1
			subIdx[subKey] = si
		}
		folder.SubFolders[si].Logics = append(folder.SubFolders[si].Logics, logic)
	}
	return tree, nil
}

func (ts *templateService) Summaries(dbc dbctx.Context) ([]TemplateSummary, error) {
	ids, err := ts.templates.ProgramIDs(dbc.Ctx, dbc.Tx)
	if err != nil {
		return nil, err
	}
	summaries := make([]TemplateSummary, 0, len(ids))
	for _, id := range ids {
		count, err := ts.templates.CountByProgram(dbc.Ctx, dbc.Tx, id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, TemplateSummary{PgmID: id, Count: count})
	}
	return summaries, nil
}

func (ts *templateService) Delete(dbc dbctx.Context, pgmID string) (int64, error) {
	deleted, err := ts.templates.DeleteByProgram(dbc.Ctx, dbc.Tx, pgmID)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, types.ErrTemplateNotFound
	}
	return deleted, nil
}
