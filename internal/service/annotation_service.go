package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/malkassem/documentcloud/internal/access"
	"github.com/malkassem/documentcloud/internal/dto"
	"github.com/malkassem/documentcloud/internal/models"
	appErrors "github.com/malkassem/documentcloud/pkg/errors"
)

// DefaultTitle replaces a blank annotation title before validation.
const DefaultTitle = "Untitled Note"

type annotationRepository interface {
	ListByDocument(ctx context.Context, documentID string, f access.Filter, filter models.AnnotationFilter) ([]models.Annotation, int, error)
	GetByID(ctx context.Context, id string) (*models.Annotation, error)
	Create(ctx context.Context, annotation *models.Annotation) error
	Update(ctx context.Context, annotation *models.Annotation) error
	Delete(ctx context.Context, id string) error
}

type annotationAccountRepository interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	ListByIDsWithOrganization(ctx context.Context, ids []string) ([]models.AccountWithOrganization, error)
}

type annotationDocumentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
}

type annotationProjectRepository interface {
	SharedDocumentIDs(ctx context.Context, accountID string) ([]string, error)
}

type counterRefresher interface {
	ScheduleCounterRefresh(documentID string)
}

type annotationCommentRepository interface {
	ListByAnnotationIDs(ctx context.Context, ids []string) ([]models.Comment, error)
}

// AnnotationServiceParams wires the annotation service dependencies.
type AnnotationServiceParams struct {
	Annotations annotationRepository
	Accounts    annotationAccountRepository
	Documents   annotationDocumentRepository
	Projects    annotationProjectRepository
	Comments    annotationCommentRepository
	Refresher   counterRefresher
	Assets      AssetURLBuilder
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// AnnotationService implements annotation reads and writes under the
// visibility rules.
type AnnotationService struct {
	annotations annotationRepository
	accounts    annotationAccountRepository
	documents   annotationDocumentRepository
	projects    annotationProjectRepository
	comments    annotationCommentRepository
	refresher   counterRefresher
	assets      AssetURLBuilder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAnnotationService constructs an AnnotationService.
func NewAnnotationService(params AnnotationServiceParams) *AnnotationService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	return &AnnotationService{
		annotations: params.Annotations,
		accounts:    params.Accounts,
		documents:   params.Documents,
		projects:    params.Projects,
		comments:    params.Comments,
		refresher:   params.Refresher,
		assets:      params.Assets,
		validator:   params.Validator,
		logger:      params.Logger,
	}
}

// ResolveViewer loads the acting account and its project grants from token
// claims. Nil claims resolve to the anonymous viewer. The shared document
// set is read once here so every decision in the request agrees.
func (s *AnnotationService) ResolveViewer(ctx context.Context, claims *models.JWTClaims) (access.Viewer, error) {
	if claims == nil {
		return access.Viewer{}, nil
	}
	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return access.Viewer{}, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return access.Viewer{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	shared, err := s.projects.SharedDocumentIDs(ctx, account.ID)
	if err != nil {
		return access.Viewer{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve project grants")
	}
	return access.Viewer{Account: account, SharedDocumentIDs: shared}, nil
}

// Document loads a document or reports not found.
func (s *AnnotationService) Document(ctx context.Context, id string) (*models.Document, error) {
	document, err := s.documents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return document, nil
}

// List returns the annotations on a document the viewer may see, with
// attribution populated.
func (s *AnnotationService) List(ctx context.Context, v access.Viewer, document *models.Document, filter models.AnnotationFilter) ([]models.Annotation, *models.Pagination, error) {
	f := access.BuildFilter(v)
	annotations, total, err := s.annotations.ListByDocument(ctx, document.ID, f, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list annotations")
	}
	if err := s.PopulateAuthorInfo(ctx, annotations, v); err != nil {
		return nil, nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	return annotations, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single annotation when the viewer may see it. Invisible and
// missing annotations are indistinguishable to the caller.
func (s *AnnotationService) Get(ctx context.Context, v access.Viewer, document *models.Document, id string) (*models.Annotation, error) {
	annotation, err := s.annotations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "annotation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load annotation")
	}
	if annotation.DocumentID != document.ID || !access.Visible(annotation, v) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "annotation not found")
	}
	batch := []models.Annotation{*annotation}
	if err := s.PopulateAuthorInfo(ctx, batch, v); err != nil {
		return nil, err
	}
	return &batch[0], nil
}

// Create resolves a new annotation against its parent document, validates
// the result, persists it, and schedules a counter refresh.
func (s *AnnotationService) Create(ctx context.Context, v access.Viewer, document *models.Document, req dto.CreateAnnotationRequest) (*models.Annotation, error) {
	if v.Anonymous() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "sign in to annotate")
	}
	annotation, err := s.resolveNew(req, document)
	if err != nil {
		return nil, err
	}
	if err := s.annotations.Create(ctx, annotation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create annotation")
	}
	s.scheduleRefresh(document.ID)

	batch := []models.Annotation{*annotation}
	if err := s.PopulateAuthorInfo(ctx, batch, v); err != nil {
		return nil, err
	}
	return &batch[0], nil
}

// Update applies a partial update. Only the author or a privileged account
// in the annotation's organization may edit.
func (s *AnnotationService) Update(ctx context.Context, v access.Viewer, document *models.Document, id string, req dto.UpdateAnnotationRequest) (*models.Annotation, error) {
	annotation, err := s.Get(ctx, v, document, id)
	if err != nil {
		return nil, err
	}
	if !v.Account.Owns(annotation) && !v.Account.Collaborates(annotation) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to edit this annotation")
	}

	previousAccess := annotation.Access
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			title = DefaultTitle
		}
		annotation.Title = title
	}
	if req.Content != nil {
		annotation.Content = *req.Content
	}
	if req.PageNumber != nil {
		annotation.PageNumber = *req.PageNumber
	}
	if req.Location != nil {
		annotation.Location = req.Location
	}
	if req.Access != nil {
		annotation.Access = models.Access(*req.Access)
	}
	if req.CommentAccess != nil {
		annotation.CommentAccess = models.Access(*req.CommentAccess)
	}

	if !document.HasPage(annotation.PageNumber) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "page_number is outside the document")
	}
	if !annotation.Access.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidAccess, "access must be public, private or exclusive")
	}
	if !annotation.CommentAccess.ValidCommentAccess() {
		return nil, appErrors.Clone(appErrors.ErrInvalidAccess, "comment_access must be public, private, exclusive or organization")
	}

	if err := s.annotations.Update(ctx, annotation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update annotation")
	}
	if annotation.Access != previousAccess {
		s.scheduleRefresh(document.ID)
	}
	return annotation, nil
}

// Delete removes an annotation under the same authorization rule as Update.
func (s *AnnotationService) Delete(ctx context.Context, v access.Viewer, document *models.Document, id string) error {
	annotation, err := s.Get(ctx, v, document, id)
	if err != nil {
		return err
	}
	if !v.Account.Owns(annotation) && !v.Account.Collaborates(annotation) {
		return appErrors.Clone(appErrors.ErrForbidden, "not allowed to delete this annotation")
	}
	if err := s.annotations.Delete(ctx, annotation.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete annotation")
	}
	s.scheduleRefresh(document.ID)
	return nil
}

// PopulateAuthorInfo attaches display attribution to a batch with a single
// bulk account read. Missing authors fall back to a fixed placeholder, and
// organization names are disclosed only for privileged roles.
func (s *AnnotationService) PopulateAuthorInfo(ctx context.Context, batch []models.Annotation, v access.Viewer) error {
	if len(batch) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(batch))
	ids := make([]string, 0, len(batch))
	for i := range batch {
		id := batch[i].AccountID
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	accounts, err := s.accounts.ListByIDsWithOrganization(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load annotation authors")
	}
	byID := make(map[string]models.AccountWithOrganization, len(accounts))
	for _, account := range accounts {
		byID[account.ID] = account
	}

	for i := range batch {
		info := &models.AuthorInfo{
			AccountID: batch[i].AccountID,
			FullName:  "Unattributed",
			OwnsNote:  !v.Anonymous() && v.Account.ID == batch[i].AccountID,
		}
		if author, ok := byID[batch[i].AccountID]; ok {
			info.FullName = author.FullName()
			if author.Role.Privileged() && author.OrganizationName != nil {
				info.OrganizationName = *author.OrganizationName
			}
		}
		batch[i].Author = info
	}
	return nil
}

func (s *AnnotationService) scheduleRefresh(documentID string) {
	if s.refresher == nil {
		return
	}
	s.refresher.ScheduleCounterRefresh(documentID)
}

// resolvedAnnotation mirrors the field set that must survive defaulting.
type resolvedAnnotation struct {
	Title          string `validate:"required"`
	PageNumber     int    `validate:"required"`
	OrganizationID string `validate:"required"`
	AccountID      string `validate:"required"`
	DocumentID     string `validate:"required"`
	Access         string `validate:"required"`
	CommentAccess  string `validate:"required"`
}

var resolvedFieldNames = map[string]string{
	"Title":          "title",
	"PageNumber":     "page_number",
	"OrganizationID": "organization_id",
	"AccountID":      "account_id",
	"DocumentID":     "document_id",
	"Access":         "access",
	"CommentAccess":  "comment_access",
}

// resolveNew builds an annotation from the request and its parent document.
// The document id always comes from the parent; ownership and access fields
// inherit from the parent only when the request leaves them unset. A blank
// title is healed before validation, never rejected. Runs once, before the
// first persistence.
func (s *AnnotationService) resolveNew(req dto.CreateAnnotationRequest, document *models.Document) (*models.Annotation, error) {
	annotation := &models.Annotation{
		DocumentID:     document.ID,
		Title:          strings.TrimSpace(req.Title),
		Content:        req.Content,
		Location:       req.Location,
		OrganizationID: document.OrganizationID,
		AccountID:      document.AccountID,
		Access:         document.Access,
		CommentAccess:  document.CommentAccess,
	}
	if req.PageNumber != nil {
		annotation.PageNumber = *req.PageNumber
	}
	if req.OrganizationID != nil {
		annotation.OrganizationID = *req.OrganizationID
	}
	if req.AccountID != nil {
		annotation.AccountID = *req.AccountID
	}
	if req.Access != nil {
		annotation.Access = models.Access(*req.Access)
	}
	if req.CommentAccess != nil {
		annotation.CommentAccess = models.Access(*req.CommentAccess)
	}
	if annotation.Title == "" {
		annotation.Title = DefaultTitle
	}

	resolved := resolvedAnnotation{
		Title:          annotation.Title,
		PageNumber:     annotation.PageNumber,
		OrganizationID: annotation.OrganizationID,
		AccountID:      annotation.AccountID,
		DocumentID:     annotation.DocumentID,
		Access:         string(annotation.Access),
		CommentAccess:  string(annotation.CommentAccess),
	}
	if err := s.validator.Struct(resolved); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, resolvedFieldNames[fe.StructField()])
			}
			return nil, appErrors.Clone(appErrors.ErrValidation, "missing required fields: "+strings.Join(missing, ", "))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid annotation")
	}

	if !document.HasPage(annotation.PageNumber) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "page_number is outside the document")
	}
	if !annotation.Access.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidAccess, "access must be public, private or exclusive")
	}
	if !annotation.CommentAccess.ValidCommentAccess() {
		return nil, appErrors.Clone(appErrors.ErrInvalidAccess, "comment_access must be public, private, exclusive or organization")
	}
	return annotation, nil
}
