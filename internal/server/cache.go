package server

import (
	"context"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dori/swimlane/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache wraps a Backend with Redis-backed caching of project task lists.
// Entries are keyed by a per-project version that every write bumps before
// it returns. A list read from the backend is stored under the version seen
// before the read, so a list that raced a write lands on a key nobody reads.
type Cache struct {
	base  Backend
	redis *redis.Client
	ttl   time.Duration
	log   logrus.FieldLogger
}

// NewCache creates a caching Backend using the provided Redis client and TTL
func NewCache(base Backend, client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *Cache {
	if base == nil {
		panic("server.NewCache: base backend is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cache{base: base, redis: client, ttl: ttl, log: log}
}

func (c *Cache) ListProjects(ctx context.Context) ([]model.Project, error) {
	return c.base.ListProjects(ctx)
}

func (c *Cache) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return c.base.GetTask(ctx, id)
}

func (c *Cache) ListTasksForProject(ctx context.Context, projectID string) ([]model.Task, error) {
	version, ok := c.version(ctx, projectID)
	if ok {
		if tasks, hit := c.loadTasks(ctx, projectID, version); hit {
			return tasks, nil
		}
	}

	tasks, err := c.base.ListTasksForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if ok {
		c.storeTasks(ctx, projectID, version, tasks)
	}
	return tasks, nil
}

func (c *Cache) CreateTask(ctx context.Context, projectID string, t model.NewTask) (*model.Task, error) {
	created, err := c.base.CreateTask(ctx, projectID, t)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, projectID)
	return created, nil
}

func (c *Cache) UpdateTaskStatus(ctx context.Context, id string, status model.Status) error {
	// The project is needed for eviction; a lookup failure is left for the
	// update itself to report.
	var projectID string
	if t, err := c.base.GetTask(ctx, id); err == nil {
		projectID = t.ProjectID
	}

	if err := c.base.UpdateTaskStatus(ctx, id, status); err != nil {
		return err
	}
	if projectID != "" {
		c.evict(ctx, projectID)
	}
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, id string) error {
	t, err := c.base.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if err := c.base.DeleteTask(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, t.ProjectID)
	return nil
}

// version returns the project's current cache version. ok is false when
// Redis cannot be asked, in which case the cache is bypassed.
func (c *Cache) version(ctx context.Context, projectID string) (int64, bool) {
	if c.redis == nil {
		return 0, false
	}
	v, err := c.redis.Get(ctx, versionKey(projectID)).Int64()
	switch {
	case err == redis.Nil:
		return 0, true
	case err != nil:
		c.log.WithError(err).WithField("project_id", projectID).Warn("task cache version read failed")
		return 0, false
	}
	return v, true
}

func (c *Cache) loadTasks(ctx context.Context, projectID string, version int64) ([]model.Task, bool) {
	key := tasksCacheKey(projectID, version)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backend without failing
			c.log.WithError(err).WithField("project_id", projectID).Warn("task cache read failed")
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var tasks []model.Task
	if err := sonic.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) storeTasks(ctx context.Context, projectID string, version int64, tasks []model.Task) {
	if c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(tasks)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, tasksCacheKey(projectID, version), data, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("project_id", projectID).Warn("task cache write failed")
	}
}

// evict bumps the project version, then drops the entry of the old version
func (c *Cache) evict(ctx context.Context, projectID string) {
	if c.redis == nil {
		return
	}
	log := c.log.WithField("project_id", projectID)
	version, err := c.redis.Incr(ctx, versionKey(projectID)).Result()
	if err != nil {
		log.WithError(err).Warn("task cache eviction failed")
		return
	}
	if err := c.redis.Del(ctx, tasksCacheKey(projectID, version-1)).Err(); err != nil {
		log.WithError(err).Warn("task cache cleanup failed")
	}
}

func tasksCacheKey(projectID string, version int64) string {
	return "swimlane:tasks:" + projectID + ":v" + strconv.FormatInt(version, 10)
}

func versionKey(projectID string) string {
	return "swimlane:tasks:" + projectID + ":version"
}
