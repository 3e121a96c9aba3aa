package funding

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// ChangeReason 本地预测状态变化的原因
type ChangeReason string

const (
	ChangeLoaded     ChangeReason = "loaded"      // 从权威存储载入
	ChangeOptimistic ChangeReason = "optimistic"  // 乐观入账
	ChangeAdopted    ChangeReason = "adopted"     // 采用权威确认结果
	ChangeRolledBack ChangeReason = "rolled_back" // 失败回滚
	ChangeEvicted    ChangeReason = "evicted"     // 项目已不存在
)

// View 某个项目当前对外可见的状态
type View struct {
	State    State    `json:"project"`
	Trending Trending `json:"trending"`
	Pending  int      `json:"pending"`
}

// Change 状态变化通知
type Change struct {
	Reason    ChangeReason
	RequestID string
	View      View
}

// Observer 订阅者，在每次可见状态变化后被调用
type Observer func(Change)

// Ticket 一次乐观入账的凭证，确认或回滚时必须出示
type Ticket struct {
	RequestID string
	ProjectID string
	Amount    decimal.Decimal
}

type prediction struct {
	base    State                      // 最近一次已知的权威状态
	pending map[string]decimal.Decimal // 尚未确认的乐观入账，按请求ID索引
}

func (p *prediction) current() State {
	s := p.base
	for _, amount := range p.pending {
		s.CurrentFunding = s.CurrentFunding.Add(amount)
	}
	return s
}

// PredictionStore 客户端持有的项目筹资状态镜像
//
// 可见金额 = 权威金额 + 未确认的乐观入账。确认时移除对应的乐观入账并
// 安装权威值，回滚时只移除对应的乐观入账，因此回滚总是精确抵消原操作。
// 只有 Controller 会修改乐观入账。
type PredictionStore struct {
	mu        sync.RWMutex
	entries   map[string]*prediction
	projector *Projector
	observers []Observer
}

// NewPredictionStore 创建本地预测存储
func NewPredictionStore(projector *Projector) *PredictionStore {
	if projector == nil {
		projector = NewProjector()
	}
	return &PredictionStore{
		entries:   make(map[string]*prediction),
		projector: projector,
	}
}

// Subscribe 注册状态变化订阅者
func (s *PredictionStore) Subscribe(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// Load 载入权威状态，版本比已知状态旧时忽略
func (s *PredictionStore) Load(states ...State) {
	for _, st := range states {
		s.mu.Lock()
		p, ok := s.entries[st.ID]
		if !ok {
			p = &prediction{pending: make(map[string]decimal.Decimal)}
			s.entries[st.ID] = p
		} else if st.Version < p.base.Version {
			s.mu.Unlock()
			continue
		}
		p.base = st
		view := s.viewLocked(p)
		s.mu.Unlock()

		s.notify(Change{Reason: ChangeLoaded, View: view})
	}
}

// Has 项目是否已载入
func (s *PredictionStore) Has(projectID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[projectID]
	return ok
}

// View 读取项目当前可见状态，趋势指标在读取时重新计算
func (s *PredictionStore) View(projectID string) (View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.entries[projectID]
	if !ok {
		return View{}, false
	}
	return s.viewLocked(p), true
}

// Snapshot 所有项目的可见状态，按项目ID排序
func (s *PredictionStore) Snapshot() []View {
	s.mu.RLock()
	views := make([]View, 0, len(s.entries))
	for _, p := range s.entries {
		views = append(views, s.viewLocked(p))
	}
	s.mu.RUnlock()

	sort.Slice(views, func(i, j int) bool {
		return views[i].State.ID < views[j].State.ID
	})
	return views
}

// Trending 所有项目的趋势指标，按完成百分比降序
func (s *PredictionStore) Trending() []Trending {
	views := s.Snapshot()
	result := make([]Trending, len(views))
	for i, v := range views {
		result[i] = v.Trending
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].FundingPercentage > result[j].FundingPercentage
	})
	return result
}

func (s *PredictionStore) viewLocked(p *prediction) View {
	st := p.current()
	return View{
		State:    st,
		Trending: s.projector.Project(st),
		Pending:  len(p.pending),
	}
}

// apply 乐观入账，立即对所有读取者可见
func (s *PredictionStore) apply(projectID, requestID string, amount decimal.Decimal) (Ticket, error) {
	s.mu.Lock()
	p, ok := s.entries[projectID]
	if !ok {
		s.mu.Unlock()
		return Ticket{}, fmt.Errorf("project %s is not loaded", projectID)
	}
	if _, dup := p.pending[requestID]; dup {
		s.mu.Unlock()
		return Ticket{}, fmt.Errorf("request %s is already pending", requestID)
	}
	p.pending[requestID] = amount
	view := s.viewLocked(p)
	s.mu.Unlock()

	s.notify(Change{Reason: ChangeOptimistic, RequestID: requestID, View: view})
	return Ticket{RequestID: requestID, ProjectID: projectID, Amount: amount}, nil
}

// adopt 用权威值替换乐观入账，返回的 stale 表示权威值比已知状态旧而未被安装
func (s *PredictionStore) adopt(t Ticket, authoritative State) (view View, stale bool) {
	s.mu.Lock()
	p, ok := s.entries[t.ProjectID]
	if !ok {
		p = &prediction{pending: make(map[string]decimal.Decimal)}
		s.entries[t.ProjectID] = p
	}
	delete(p.pending, t.RequestID)
	if authoritative.Version < p.base.Version {
		stale = true
	} else {
		p.base = authoritative
	}
	view = s.viewLocked(p)
	s.mu.Unlock()

	s.notify(Change{Reason: ChangeAdopted, RequestID: t.RequestID, View: view})
	return view, stale
}

// rollback 撤销乐观入账，凭证已被确认或回滚过时返回 false 且不做任何修改
func (s *PredictionStore) rollback(t Ticket) (View, bool) {
	s.mu.Lock()
	p, ok := s.entries[t.ProjectID]
	if !ok {
		s.mu.Unlock()
		return View{}, false
	}
	if _, pending := p.pending[t.RequestID]; !pending {
		view := s.viewLocked(p)
		s.mu.Unlock()
		return view, false
	}
	delete(p.pending, t.RequestID)
	view := s.viewLocked(p)
	s.mu.Unlock()

	s.notify(Change{Reason: ChangeRolledBack, RequestID: t.RequestID, View: view})
	return view, true
}

// evict 移除没有未确认入账的项目
func (s *PredictionStore) evict(projectID string) {
	s.mu.Lock()
	p, ok := s.entries[projectID]
	if !ok || len(p.pending) > 0 {
		s.mu.Unlock()
		return
	}
	view := s.viewLocked(p)
	delete(s.entries, projectID)
	s.mu.Unlock()

	s.notify(Change{Reason: ChangeEvicted, View: view})
}

func (s *PredictionStore) notify(c Change) {
	s.mu.RLock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.RUnlock()

	for _, o := range observers {
		o(c)
	}
}
