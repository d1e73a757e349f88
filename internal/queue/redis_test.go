package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"partselect/parser/internal/domain/task"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStreams struct {
	groups    map[string]string
	added     []*redis.XAddArgs
	acked     []string
	read      []*redis.XReadGroupArgs
	claimed   []*redis.XAutoClaimArgs
	pending   []redis.XMessage
	groupErr  error
	readErr   error
	claimMsgs []redis.XMessage
}

func newFakeStreams() *fakeStreams {
	return &fakeStreams{groups: map[string]string{}}
}

func (f *fakeStreams) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.added = append(f.added, a)
	return redis.NewStringResult("1700000000000-0", nil)
}

func (f *fakeStreams) XGroupCreateMkStream(_ context.Context, stream, group, _ string) *redis.StatusCmd {
	if f.groupErr != nil {
		return redis.NewStatusResult("", f.groupErr)
	}
	f.groups[stream] = group
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStreams) XReadGroup(_ context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	f.read = append(f.read, a)
	if f.readErr != nil {
		return redis.NewXStreamSliceCmdResult(nil, f.readErr)
	}
	if len(f.pending) == 0 {
		return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
	}
	msg := f.pending[0]
	f.pending = f.pending[1:]
	return redis.NewXStreamSliceCmdResult([]redis.XStream{{Stream: a.Streams[0], Messages: []redis.XMessage{msg}}}, nil)
}

func (f *fakeStreams) XAck(_ context.Context, stream, _ string, ids ...string) *redis.IntCmd {
	for _, id := range ids {
		f.acked = append(f.acked, stream+"/"+id)
	}
	return redis.NewIntResult(int64(len(ids)), nil)
}

func (f *fakeStreams) XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd {
	f.claimed = append(f.claimed, a)
	cmd := redis.NewXAutoClaimCmd(ctx)
	cmd.SetVal(f.claimMsgs, "0-0")
	return cmd
}

func TestEnsureStreamsExist(t *testing.T) {
	streams := newFakeStreams()
	q := newRedisQueue(streams, "partselect_consumer")

	require.NoError(t, q.EnsureStreamsExist(context.Background()))
	assert.Len(t, streams.groups, len(task.TaskTypes))
	for _, taskType := range task.TaskTypes {
		assert.Equal(t, "partselect_consumer", streams.groups["partselect:stream:"+taskType])
	}
}

func TestEnsureStreamsExist_ExistingGroup(t *testing.T) {
	streams := newFakeStreams()
	streams.groupErr = errors.New("BUSYGROUP Consumer Group name already exists")
	q := newRedisQueue(streams, "partselect_consumer")

	assert.NoError(t, q.EnsureStreamsExist(context.Background()))

	streams.groupErr = errors.New("NOAUTH Authentication required")
	assert.ErrorContains(t, q.EnsureStreamsExist(context.Background()), "NOAUTH")
}

func TestAddTask(t *testing.T) {
	streams := newFakeStreams()
	q := newRedisQueue(streams, "partselect_consumer")

	id, err := q.AddTask(context.Background(), &task.PartTask{PartNumber: "PS11752778", Force: true})
	require.NoError(t, err)
	assert.Equal(t, "1700000000000-0", id)

	require.Len(t, streams.added, 1)
	args := streams.added[0]
	assert.Equal(t, "partselect:stream:"+task.PartTaskType, args.Stream)

	values := args.Values.(map[string]interface{})
	assert.Equal(t, task.PartTaskType, values["task_type"])
	assert.JSONEq(t, `{"part_number":"PS11752778","force":true}`, values["task_data"].(string))
}

func TestGetTask(t *testing.T) {
	streams := newFakeStreams()
	q := newRedisQueue(streams, "partselect_consumer")
	ctx := context.Background()

	msg, err := q.GetTask(ctx, "worker-1", task.PartTaskType)
	require.NoError(t, err)
	assert.Nil(t, msg)

	streams.pending = []redis.XMessage{{ID: "1-0", Values: map[string]interface{}{"task_data": `{"part_number":"PS1"}`}}}
	msg, err = q.GetTask(ctx, "worker-1", task.PartTaskType)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "1-0", msg.ID)

	last := streams.read[len(streams.read)-1]
	assert.Equal(t, "worker-1", last.Consumer)
	assert.Equal(t, []string{"partselect:stream:" + task.PartTaskType, ">"}, last.Streams)

	data, err := TaskData(*msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"part_number":"PS1"}`, string(data))

	streams.readErr = errors.New("i/o timeout")
	_, err = q.GetTask(ctx, "worker-1", task.PartTaskType)
	assert.ErrorContains(t, err, "i/o timeout")
}

func TestAckAndAutoClaim(t *testing.T) {
	streams := newFakeStreams()
	streams.claimMsgs = []redis.XMessage{{ID: "7-0"}}
	q := newRedisQueue(streams, "partselect_consumer")
	ctx := context.Background()

	require.NoError(t, q.AckTask(ctx, task.PartRetryTaskType, "5-0"))
	assert.Equal(t, []string{"partselect:stream:" + task.PartRetryTaskType + "/5-0"}, streams.acked)

	msgs, err := q.AutoClaim(ctx, "worker-2", task.PartTaskType, time.Minute)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "7-0", msgs[0].ID)
	assert.Equal(t, time.Minute, streams.claimed[0].MinIdle)
	assert.Equal(t, "worker-2", streams.claimed[0].Consumer)
}

func TestTaskData_Missing(t *testing.T) {
	_, err := TaskData(redis.XMessage{ID: "9-0", Values: map[string]interface{}{}})
	assert.ErrorContains(t, err, "9-0")
}
