package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/events"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

type commentFixture struct {
	tickets  *MockTicketRepository
	comments *MockCommentRepository
	log      *eventLog
	svc      *CommentService
}

func newCommentFixture() *commentFixture {
	tickets := new(MockTicketRepository)
	comments := new(MockCommentRepository)
	dispatcher, log := newEventLog(events.EventTicketCommentAdded)
	svc := NewCommentService(CommentDependencies{TicketRepo: tickets, CommentRepo: comments, Dispatcher: dispatcher})
	return &commentFixture{tickets: tickets, comments: comments, log: log, svc: svc}
}

func stored(id string, parent *string, kind domain.CommentType) *domain.Comment {
	return &domain.Comment{ID: id, TicketID: "t1", ParentCommentID: parent, Type: kind, Content: id}
}

func TestAddCommentValidatesContent(t *testing.T) {
	f := newCommentFixture()
	requester := actorWith("requester", domain.RoleEndUser, "")

	_, err := f.svc.AddComment(context.Background(), requester, "t1", AddCommentInput{Content: "   \n\t"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.svc.AddComment(context.Background(), requester, "t1", AddCommentInput{Content: strings.Repeat("é", domain.MaxCommentLength+1)})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	f.tickets.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAddCommentAcceptsMaxLengthAfterTrim(t *testing.T) {
	f := newCommentFixture()
	f.tickets.On("GetByID", mock.Anything, "t1").Return(openTicket("t1"), nil).Once()
	f.comments.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Comment) bool {
		return len([]rune(c.Content)) == domain.MaxCommentLength && c.Type == domain.CommentTypeComment
	})).Return(nil).Once()

	content := "  " + strings.Repeat("a", domain.MaxCommentLength) + "  "
	_, err := f.svc.AddComment(context.Background(), actorWith("requester", domain.RoleEndUser, ""), "t1", AddCommentInput{Content: content})
	require.NoError(t, err)
	f.comments.AssertExpectations(t)
}

func TestAddCommentRootAndEvent(t *testing.T) {
	f := newCommentFixture()
	f.tickets.On("GetByID", mock.Anything, "t1").Return(openTicket("t1"), nil).Once()
	f.comments.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Comment).ID = "c1"
	}).Return(nil).Once()

	comment, err := f.svc.AddComment(context.Background(), actorWith("requester", domain.RoleEndUser, ""), "t1", AddCommentInput{Content: " hello "})
	require.NoError(t, err)
	assert.Equal(t, "hello", comment.Content)
	assert.Equal(t, domain.CommentTypeComment, comment.Type)
	assert.Equal(t, "requester", *comment.AuthorID)

	published := f.log.all()
	require.Len(t, published, 1)
	assert.Equal(t, "c1", published[0].Payload.(events.TicketCommentAddedPayload).CommentID)
}

func TestAddCommentRequiresView(t *testing.T) {
	f := newCommentFixture()
	f.tickets.On("GetByID", mock.Anything, "t1").Return(openTicket("t1"), nil).Once()

	_, err := f.svc.AddComment(context.Background(), actorWith("stranger", domain.RoleEndUser, ""), "t1", AddCommentInput{Content: "hi"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))
}

func TestAddCommentInternalIsStaffOnly(t *testing.T) {
	f := newCommentFixture()
	f.tickets.On("GetByID", mock.Anything, "t1").Return(openTicket("t1"), nil).Once()

	_, err := f.svc.AddComment(context.Background(), actorWith("requester", domain.RoleEndUser, ""), "t1",
		AddCommentInput{Content: "psst", IsInternal: true})
	assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))
}

func TestAddReplyDepthLimits(t *testing.T) {
	root := stored("root", nil, domain.CommentTypeComment)
	reply := stored("reply", strPtr("root"), domain.CommentTypeReply)
	replyToReply := stored("reply2", strPtr("reply"), domain.CommentTypeReply)
	lead := actorWith("lead", domain.RoleTeamLead, deptA)

	t.Run("reply to reply is accepted", func(t *testing.T) {
		f := newCommentFixture()
		f.tickets.On("GetByID", mock.Anything, "t1").Return(openTicket("t1"), nil).Once()
		f.comments.On("GetByID", mock.Anything, "reply").Return(reply, nil).Once()
		f.comments.On("GetByID", mock.Anything, "root").Return(root, nil).Once()
		f.comments.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Comment) bool {
			return c.Type == domain.CommentTypeReply && *c.ParentCommentID == "reply"
		})).Return(nil).Once()

		_, err := f.svc.AddComment(context.Background(), lead, "t1", AddCommentInput{Content: "depth two", ParentCommentID: strPtr("reply")})
		require.NoError(t, err)
		f.comments.AssertExpectations(t)
	})

	t.Run("third level is rejected", func(t *testing.T) {
		f := newCommentFixture()
		f.tickets.On("GetByID", mock.Anything, "t1").Return(openTicket("t1"), nil).Once()
		f.comments.On("GetByID", mock.Anything, "reply2").Return(replyToReply, nil).Once()
		f.comments.On("GetByID", mock.Anything, "reply").Return(reply, nil).Once()
		f.comments.On("GetByID", mock.Anything, "root").Return(root, nil).Once()

		_, err := f.svc.AddComment(context.Background(), lead, "t1", AddCommentInput{Content: "depth three", ParentCommentID: strPtr("reply2")})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
		f.comments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAddReplyParentChecks(t *testing.T) {
	lead := actorWith("lead", domain.RoleTeamLead, deptA)
	cases := []struct {
		name   string
		parent *domain.Comment
		err    error
		code   string
	}{
		{name: "missing parent", err: pgx.ErrNoRows, code: apperrors.CodeNotFound},
		{name: "other ticket", parent: &domain.Comment{ID: "p", TicketID: "t9", Type: domain.CommentTypeComment}, code: apperrors.CodeValidation},
		{name: "system comment", parent: &domain.Comment{ID: "p", TicketID: "t1", Type: domain.CommentTypeStatusChange}, code: apperrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCommentFixture()
			f.tickets.On("GetByID", mock.Anything, "t1").Return(openTicket("t1"), nil).Once()
			if tc.parent != nil {
				f.comments.On("GetByID", mock.Anything, "p").Return(tc.parent, nil).Once()
			} else {
				f.comments.On("GetByID", mock.Anything, "p").Return(nil, tc.err).Once()
			}
			_, err := f.svc.AddComment(context.Background(), lead, "t1", AddCommentInput{Content: "x", ParentCommentID: strPtr("p")})
			assert.True(t, apperrors.HasCode(err, tc.code), err)
		})
	}
}

func TestGetThreadHidesInternalFromEndUsers(t *testing.T) {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	flat := []domain.Comment{
		{ID: "a", TicketID: "t1", Type: domain.CommentTypeComment, CreatedAt: base},
		{ID: "note", TicketID: "t1", Type: domain.CommentTypeComment, IsInternal: true, CreatedAt: base.Add(time.Minute)},
		{ID: "note-reply", TicketID: "t1", ParentCommentID: strPtr("note"), Type: domain.CommentTypeReply, IsInternal: true, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "a-reply", TicketID: "t1", ParentCommentID: strPtr("a"), Type: domain.CommentTypeReply, CreatedAt: base.Add(3 * time.Minute)},
	}

	f := newCommentFixture()
	f.tickets.On("GetByID", mock.Anything, "t1").Return(openTicket("t1"), nil)
	f.comments.On("ListByTicket", mock.Anything, "t1").Return(flat, nil)

	thread, err := f.svc.GetThread(context.Background(), actorWith("requester", domain.RoleEndUser, ""), "t1")
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, "a", thread[0].ID)
	require.Len(t, thread[0].Replies, 1)

	staffThread, err := f.svc.GetThread(context.Background(), actorWith("lead", domain.RoleTeamLead, deptA), "t1")
	require.NoError(t, err)
	assert.Len(t, staffThread, 2)
}
