package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

func newAttachmentFixture() (*AttachmentService, *MockTicketRepository, *MockAttachmentRepository, *MockBlobStore) {
	tickets := new(MockTicketRepository)
	attachments := new(MockAttachmentRepository)
	blobs := new(MockBlobStore)
	svc := NewAttachmentService(AttachmentDependencies{
		TicketRepo:     tickets,
		AttachmentRepo: attachments,
		Blobs:          blobs,
		MaxBytes:       1024,
		URLExpiry:      time.Minute,
	})
	tickets.On("GetByID", mock.Anything, "t1").Return(openTicket("t1"), nil).Maybe()
	return svc, tickets, attachments, blobs
}

func TestUploadStoresBlobAndMetadata(t *testing.T) {
	svc, _, attachments, blobs := newAttachmentFixture()
	blobs.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "tickets/t1/")
	}), mock.Anything, int64(5), "text/plain").Return(nil).Once()
	attachments.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	blobs.On("PresignGet", mock.Anything, mock.Anything, "log.txt", time.Minute).Return("https://blobs/signed", nil).Once()

	att, err := svc.Upload(context.Background(), actorWith("requester", domain.RoleEndUser, ""), "t1", UploadInput{
		FileName: "../../log.txt", MimeType: "text/plain", SizeBytes: 5, Content: strings.NewReader("hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, "log.txt", att.FileName)
	assert.Equal(t, "requester", att.UploadedBy)
	assert.Equal(t, "https://blobs/signed", att.URL)
	blobs.AssertExpectations(t)
}

func TestUploadValidation(t *testing.T) {
	svc, _, _, blobs := newAttachmentFixture()
	user := actorWith("requester", domain.RoleEndUser, "")

	_, err := svc.Upload(context.Background(), user, "t1", UploadInput{FileName: "a.txt", SizeBytes: 0})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.Upload(context.Background(), user, "t1", UploadInput{FileName: "a.txt", SizeBytes: 2048})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.Upload(context.Background(), user, "t1", UploadInput{FileName: " ", SizeBytes: 1})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	blobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadRequiresView(t *testing.T) {
	svc, _, _, _ := newAttachmentFixture()
	_, err := svc.Upload(context.Background(), actorWith("stranger", domain.RoleEndUser, ""), "t1",
		UploadInput{FileName: "a.txt", SizeBytes: 1, Content: strings.NewReader("a")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))
}

func TestUploadRemovesBlobWhenMetadataFails(t *testing.T) {
	svc, _, attachments, blobs := newAttachmentFixture()
	var key string
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, int64(1), "application/octet-stream").Run(func(args mock.Arguments) {
		key = args.String(1)
	}).Return(nil).Once()
	attachments.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed")).Once()
	blobs.On("Remove", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := svc.Upload(context.Background(), actorWith("requester", domain.RoleEndUser, ""), "t1",
		UploadInput{FileName: "a.bin", SizeBytes: 1, Content: strings.NewReader("a")})
	require.Error(t, err)
	blobs.AssertCalled(t, "Remove", mock.Anything, key)
}

func TestUploadBlobStoreDown(t *testing.T) {
	svc, _, attachments, blobs := newAttachmentFixture()
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("dial tcp")).Once()

	_, err := svc.Upload(context.Background(), actorWith("requester", domain.RoleEndUser, ""), "t1",
		UploadInput{FileName: "a.bin", SizeBytes: 1, Content: strings.NewReader("a")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUpstreamUnavailable))
	attachments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListAttachmentsSignsEachItem(t *testing.T) {
	svc, _, attachments, blobs := newAttachmentFixture()
	attachments.On("ListByTicket", mock.Anything, "t1").Return([]domain.Attachment{
		{ID: "a1", StorageKey: "k1", FileName: "one.txt"},
		{ID: "a2", StorageKey: "k2", FileName: "two.txt"},
	}, nil).Once()
	blobs.On("PresignGet", mock.Anything, "k1", "one.txt", time.Minute).Return("u1", nil).Once()
	blobs.On("PresignGet", mock.Anything, "k2", "two.txt", time.Minute).Return("", errors.New("boom")).Once()

	items, err := svc.List(context.Background(), actorWith("lead", domain.RoleTeamLead, deptA), "t1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "u1", items[0].URL)
	assert.Empty(t, items[1].URL)
}
