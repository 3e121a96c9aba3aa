package funding

import (
	"context"

	"github.com/blues/fundhive/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Authority 权威筹资存储，每个项目的入账必须是原子的
type Authority interface {
	// Submit 提交一笔出资并返回入账后的完整状态
	Submit(ctx context.Context, entry Entry, who Contributor) (State, error)
	// Fetch 读取项目当前状态
	Fetch(ctx context.Context, projectID string) (State, error)
}

// Controller 对账控制器：乐观入账、提交、采用权威值或回滚
type Controller struct {
	store     *PredictionStore
	authority Authority
	locks     *keyedMutex
	newID     func() string
}

// NewController 创建对账控制器
func NewController(store *PredictionStore, authority Authority) *Controller {
	return &Controller{
		store:     store,
		authority: authority,
		locks:     newKeyedMutex(),
		newID:     uuid.NewString,
	}
}

// Store 返回控制器持有的本地预测存储
func (c *Controller) Store() *PredictionStore {
	return c.store
}

// ContributeOption 出资可选参数
type ContributeOption func(*Entry)

// WithRewardTier 为众筹支持选择回报档位
func WithRewardTier(title string) ContributeOption {
	return func(e *Entry) {
		e.RewardTier = title
	}
}

// WithRequestID 指定请求ID，权威存储据此去重
func WithRequestID(id string) ContributeOption {
	return func(e *Entry) {
		e.RequestID = id
	}
}

// Invest 股权投资
func (c *Controller) Invest(ctx context.Context, projectID string, who Contributor, amount decimal.Decimal) (State, error) {
	return c.Contribute(ctx, projectID, who, amount, KindInvestment)
}

// Crowdfund 众筹支持
func (c *Controller) Crowdfund(ctx context.Context, projectID string, who Contributor, amount decimal.Decimal, opts ...ContributeOption) (State, error) {
	return c.Contribute(ctx, projectID, who, amount, KindCrowdfund, opts...)
}

// Contribute 执行一次完整的对账流程
//
// 成功时返回权威状态，若本地已载入更新的版本则返回该版本；
// 失败时本地可见金额已恢复到出资前的值，
// 返回的错误为 *ContributionError。
func (c *Controller) Contribute(ctx context.Context, projectID string, who Contributor, amount decimal.Decimal, kind Kind, opts ...ContributeOption) (State, error) {
	entry := Entry{
		ProjectID:   projectID,
		Contributor: who.ID,
		Amount:      amount,
		Kind:        kind,
	}
	for _, opt := range opts {
		opt(&entry)
	}
	if entry.RequestID == "" {
		entry.RequestID = c.newID()
	}
	if err := entry.Validate(); err != nil {
		return State{}, err
	}

	unlock, err := c.locks.Lock(ctx, projectID)
	if err != nil {
		return State{}, NewTransientError(projectID, err)
	}
	defer unlock()

	// 乐观入账前必须确认项目存在
	if !c.store.Has(projectID) {
		st, err := c.authority.Fetch(ctx, projectID)
		if err != nil {
			return State{}, Classify(projectID, err)
		}
		c.store.Load(st)
	}

	ticket, err := c.store.apply(projectID, entry.RequestID, amount)
	if err != nil {
		return State{}, NewValidationError(projectID, err.Error())
	}
	logger.Debug("Optimistic %s of %s applied to project %s (request %s)", kind, amount, projectID, entry.RequestID)

	// 提交后不可取消，结果总会被处理
	authoritative, err := c.authority.Submit(context.WithoutCancel(ctx), entry, who)
	if err != nil {
		ce := Classify(projectID, err)
		view, rolledBack := c.store.rollback(ticket)
		if !rolledBack {
			logger.Warn("Discarded stale rollback for request %s on project %s", entry.RequestID, projectID)
		} else {
			logger.Info("Rolled back %s on project %s to %s: %v", amount, projectID, view.State.CurrentFunding, ce)
		}
		if ce.Kind == KindNotFoundError {
			c.store.evict(projectID)
		}
		return State{}, ce
	}

	view, stale := c.store.adopt(ticket, authoritative)
	if stale {
		// 已知状态比本次确认结果更新，返回当前展示的状态
		logger.Warn("Ignored stale authoritative state v%d for project %s, keeping %s (v%d)",
			authoritative.Version, projectID, view.State.CurrentFunding, view.State.Version)
		return view.State, nil
	}
	logger.Debug("Adopted authoritative funding %s (v%d) for project %s",
		authoritative.CurrentFunding, authoritative.Version, projectID)
	return authoritative, nil
}

// Refresh 从权威存储重新载入项目，仅在调用方显式要求时使用
func (c *Controller) Refresh(ctx context.Context, projectID string) (View, error) {
	unlock, err := c.locks.Lock(ctx, projectID)
	if err != nil {
		return View{}, NewTransientError(projectID, err)
	}
	defer unlock()

	st, err := c.authority.Fetch(ctx, projectID)
	if err != nil {
		ce := Classify(projectID, err)
		if ce.Kind == KindNotFoundError {
			c.store.evict(projectID)
		}
		return View{}, ce
	}
	c.store.Load(st)
	view, _ := c.store.View(projectID)
	return view, nil
}
