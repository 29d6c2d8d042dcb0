package prefs

// FallbackEndpointURL 端点列表为空时使用的API地址
const FallbackEndpointURL = "https://mememeow.morami.icu"

// Preferences 用户偏好设置，整体持久化到 preferences.json
type Preferences struct {
	CopyToClipboard bool         `json:"copy_to_clipboard"`
	Shortcuts       Shortcuts    `json:"shortcuts"`
	APIURLs         EndpointList `json:"api_urls"`
}

// Shortcuts 快捷键配置，目前只有切换窗口一项
type Shortcuts struct {
	ToggleApp Binding `json:"toggle_app"`
}

// Binding 单个快捷键定义
type Binding struct {
	Modifiers []string `json:"modifiers"`
	Key       string   `json:"key"`
	Action    string   `json:"action"`
}

// EndpointList 候选API地址及当前选中的下标
type EndpointList struct {
	URLs        []Endpoint `json:"urls"`
	ActiveIndex int        `json:"active_index"`
}

type Endpoint struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DefaultPreferences 返回默认偏好设置
func DefaultPreferences() Preferences {
	return Preferences{
		CopyToClipboard: true,
		Shortcuts:       DefaultShortcuts(),
		APIURLs:         DefaultEndpoints(),
	}
}

func DefaultShortcuts() Shortcuts {
	return Shortcuts{ToggleApp: DefaultToggleAppBinding()}
}

func DefaultToggleAppBinding() Binding {
	return Binding{
		Modifiers: []string{"ctrl", "alt"},
		Key:       "v",
		Action:    "切换应用窗口",
	}
}

func DefaultEndpoints() EndpointList {
	return EndpointList{
		URLs: []Endpoint{
			{Name: "默认API", URL: FallbackEndpointURL},
		},
		ActiveIndex: 0,
	}
}

// Clone 深拷贝，调用方拿到的副本与存储内部状态互不影响
func (p Preferences) Clone() Preferences {
	p.Shortcuts = p.Shortcuts.Clone()
	p.APIURLs = p.APIURLs.Clone()
	return p
}

func (s Shortcuts) Clone() Shortcuts {
	s.ToggleApp = s.ToggleApp.Clone()
	return s
}

func (b Binding) Clone() Binding {
	if b.Modifiers != nil {
		mods := make([]string, len(b.Modifiers))
		copy(mods, b.Modifiers)
		b.Modifiers = mods
	}
	return b
}

func (l EndpointList) Clone() EndpointList {
	if l.URLs != nil {
		urls := make([]Endpoint, len(l.URLs))
		copy(urls, l.URLs)
		l.URLs = urls
	}
	return l
}

// ActiveURL 解析当前生效的API地址。
// 列表为空时返回 FallbackEndpointURL，下标越界时退回第0项；不修改 l。
func (l EndpointList) ActiveURL() string {
	if len(l.URLs) == 0 {
		return FallbackEndpointURL
	}
	idx := l.ActiveIndex
	if idx < 0 || idx >= len(l.URLs) {
		idx = 0
	}
	return l.URLs[idx].URL
}

// CandidateURLs 按优先级返回地址列表：当前选中项在前，其余保持原顺序
func (l EndpointList) CandidateURLs() []string {
	if len(l.URLs) == 0 {
		return []string{FallbackEndpointURL}
	}
	active := l.ActiveURL()
	out := make([]string, 0, len(l.URLs))
	out = append(out, active)
	skipped := false
	for _, e := range l.URLs {
		if !skipped && e.URL == active {
			skipped = true
			continue
		}
		out = append(out, e.URL)
	}
	return out
}
