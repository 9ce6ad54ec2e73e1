package directory

import (
	"Fellowship/internal/pkg/util"
	"context"
	"fmt"
	log "log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// envelope 目录服务统一返回体 {"data": ...}
type envelope[T any] struct {
	Data T `json:"data"`
}

type httpDirectory struct {
	client *resty.Client
}

// NewHTTPDirectory 通过主系统的目录接口读取，token 为空时不带鉴权头
func NewHTTPDirectory(baseURL, token string, timeout time.Duration) Directory {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if token != "" {
		client.SetAuthToken(token)
	}
	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		ctx := resp.Request.Context()
		fields := []any{
			log.String("method", resp.Request.Method),
			log.String("url", resp.Request.URL),
			log.Int("status", resp.StatusCode()),
			log.Duration("latency", resp.Time()),
		}
		if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
			log.ErrorContext(ctx, "Directory Error", fields...)
		} else if resp.Time() > 500*time.Millisecond {
			log.WarnContext(ctx, "Directory Slow", fields...)
		}
		return nil
	})
	return &httpDirectory{client: client}
}

func (s *httpDirectory) GetUser(ctx context.Context, id uint64) (*User, error) {
	var out envelope[*User]
	if err := s.get(ctx, "/users/"+strconv.FormatUint(id, 10), nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, ErrNotFound
	}
	return out.Data, nil
}

func (s *httpDirectory) GetUsers(ctx context.Context, ids []uint64) (map[uint64]*User, error) {
	result := make(map[uint64]*User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	params := map[string]string{"ids": util.JoinUint64(ids)}
	users, err := s.listUsers(ctx, params)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (s *httpDirectory) ListUsersByBranch(ctx context.Context, branchID uint64) ([]*User, error) {
	return s.listUsers(ctx, map[string]string{"branch_id": strconv.FormatUint(branchID, 10)})
}

func (s *httpDirectory) ListUsersByMC(ctx context.Context, mcID uint64) ([]*User, error) {
	return s.listUsers(ctx, map[string]string{"mc_id": strconv.FormatUint(mcID, 10)})
}

func (s *httpDirectory) ListAllUsers(ctx context.Context) ([]*User, error) {
	return s.listUsers(ctx, nil)
}

func (s *httpDirectory) GetBranch(ctx context.Context, id uint64) (*Branch, error) {
	var out envelope[*Branch]
	if err := s.get(ctx, "/branches/"+strconv.FormatUint(id, 10), nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, ErrNotFound
	}
	return out.Data, nil
}

func (s *httpDirectory) GetMC(ctx context.Context, id uint64) (*MC, error) {
	var out envelope[*MC]
	if err := s.get(ctx, "/missional-communities/"+strconv.FormatUint(id, 10), nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, ErrNotFound
	}
	return out.Data, nil
}

func (s *httpDirectory) HeadquartersBranchIDs(ctx context.Context) ([]uint64, error) {
	var out envelope[[]*Branch]
	if err := s.get(ctx, "/branches", map[string]string{"headquarters": "true"}, &out); err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(out.Data))
	for _, b := range out.Data {
		if b.IsHeadquarters {
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

func (s *httpDirectory) listUsers(ctx context.Context, params map[string]string) ([]*User, error) {
	var out envelope[[]*User]
	if err := s.get(ctx, "/users", params, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (s *httpDirectory) get(ctx context.Context, path string, params map[string]string, result any) error {
	req := s.client.R().SetContext(ctx).SetResult(result)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("directory request %s: %w", path, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.IsError() {
		return fmt.Errorf("directory request %s: unexpected status %d", path, resp.StatusCode())
	}
	return nil
}
