package store

import (
	"context"
	"sync"
)

// OpenFunc はStoreを生成する関数。
type OpenFunc func(ctx context.Context) (*Store, error)

// Provider はプロセス全体で共有するStoreを遅延生成して保持する。
// 生成に成功したStoreは1度だけ代入され、以降は同じハンドルを返す。
// 生成に失敗した場合は保持せず、次の呼び出しで再試行する。
type Provider struct {
	mu    sync.Mutex
	open  OpenFunc
	store *Store
}

// NewProvider はopenを使ってStoreを遅延生成するProviderを返す。
func NewProvider(open OpenFunc) *Provider {
	return &Provider{open: open}
}

// Static は生成済みのStoreを返すProviderを返す。
func Static(s *Store) *Provider {
	return &Provider{store: s}
}

// Get は共有Storeを返す。未生成であれば生成する。
func (p *Provider) Get(ctx context.Context) (*Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.store != nil {
		return p.store, nil
	}

	s, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	p.store = s
	return s, nil
}

// Close は生成済みのStoreを閉じる。
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.store == nil {
		return nil
	}
	err := p.store.Close()
	p.store = nil
	return err
}
