// Package fetch 从多个候选地址下载内容，所有地址都失败时逐档放宽超时重试。
package fetch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"mememeow/logger"
)

const (
	DefaultFloor   = 3 * time.Second
	DefaultCeiling = 10 * time.Second
)

// Result 成功下载的内容及命中的地址与档位
type Result struct {
	Body    []byte
	URL     string
	Tier    int
	Timeout time.Duration
}

// Fetcher 无状态，可并发使用；单次 Fetch 内部的尝试严格串行
type Fetcher struct {
	floor     time.Duration
	ceiling   time.Duration
	userAgent string
	log       logrus.FieldLogger
}

type Option func(*Fetcher)

// WithFloor 第一档超时
func WithFloor(d time.Duration) Option {
	return func(f *Fetcher) { f.floor = d }
}

// WithCeiling 超时上限，最后一档不会超过该值
func WithCeiling(d time.Duration) Option {
	return func(f *Fetcher) { f.ceiling = d }
}

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		floor:     DefaultFloor,
		ceiling:   DefaultCeiling,
		userAgent: "MemeMeow",
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.floor <= 0 {
		f.floor = DefaultFloor
	}
	if f.ceiling < f.floor {
		f.ceiling = f.floor
	}
	f.log = f.log.WithField("component", "fetch")
	return f
}

// Tiers 返回超时档位：从 floor 开始逐档翻倍，最后一档截断到 ceiling。
// 档位数为 ceil(log2(ceiling/floor)) + 1。
func (f *Fetcher) Tiers() []time.Duration {
	var tiers []time.Duration
	for t := f.floor; ; t *= 2 {
		if t >= f.ceiling {
			tiers = append(tiers, f.ceiling)
			return tiers
		}
		tiers = append(tiers, t)
	}
}

// Fetch 按给定顺序尝试每个URL，返回第一个在超时内完成且状态码为2xx的响应体。
// 同一档位内每个URL只尝试一次；整档失败后进入下一档。
func (f *Fetcher) Fetch(ctx context.Context, urls []string) (*Result, error) {
	if len(urls) == 0 {
		return nil, ErrNoCandidates
	}

	log := f.log.WithField("fetch_id", uuid.NewString())
	tiers := f.Tiers()
	attempts := 0
	var last *AttemptError

	for i, timeout := range tiers {
		tier := i + 1
		log.Debugf("使用%s超时尝试下载 (第%d/%d档)", timeout, tier, len(tiers))

		client := f.newClient(timeout)
		for j, url := range urls {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			log.Debugf("尝试URL %d/%d: %s", j+1, len(urls), url)
			attempts++
			body, aerr := f.attempt(ctx, client, url)
			if aerr == nil {
				log.Infof("成功从URL下载内容: %s", url)
				return &Result{Body: body, URL: url, Tier: tier, Timeout: timeout}, nil
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			aerr.Tier = tier
			aerr.Timeout = timeout
			last = aerr
			log.Warnf("从URL下载失败: %v", aerr)
		}

		if tier < len(tiers) {
			log.Warnf("所有URL下载失败，增加超时时间至%s后重试", tiers[tier])
		}
	}

	log.Error("所有URL在所有超时设置下均下载失败")
	return nil, &ExhaustedError{Tiers: len(tiers), Attempts: attempts, Last: last}
}

func (f *Fetcher) newClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetLogger(f.log).
		SetHeader("User-Agent", f.userAgent)
}

// attempt 单次请求；传输错误、非2xx状态码、读取响应体失败都视为可继续的失败
func (f *Fetcher) attempt(ctx context.Context, client *resty.Client, url string) ([]byte, *AttemptError) {
	resp, err := client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		if resp != nil && resp.RawBody() != nil {
			resp.RawBody().Close()
		}
		return nil, &AttemptError{URL: url, Kind: KindTransport, Err: err}
	}

	raw := resp.RawBody()
	if raw == nil {
		return nil, &AttemptError{URL: url, Kind: KindBody, Err: fmt.Errorf("empty response body")}
	}
	defer raw.Close()

	if !resp.IsSuccess() {
		io.Copy(io.Discard, io.LimitReader(raw, 4096))
		return nil, &AttemptError{URL: url, Kind: KindStatus, Status: resp.StatusCode()}
	}

	body, err := io.ReadAll(raw)
	if err != nil {
		return nil, &AttemptError{URL: url, Kind: KindBody, Err: err}
	}
	return body, nil
}
