package community

import (
	"sort"

	"mememeow/database"
)

// Manifest 社区表情库清单 community_manifest.json
type Manifest struct {
	CommunityInfo CommunityInfo      `json:"community_info"`
	MemeLibs      map[string]MemeLib `json:"meme_libs"`
}

type CommunityInfo struct {
	ResourceURL string `json:"resource_url"`
	UpdateURL   string `json:"update_url"`
	Timestamp   uint64 `json:"timestamp"`
}

type MemeLib struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Author      string   `json:"author"`
	Description string   `json:"description"`
	CreatedAt   string   `json:"created_at"`
	Timestamp   uint64   `json:"timestamp"`
	Tags        []string `json:"tags"`
	URL         string   `json:"url"`
	UpdateURL   string   `json:"update_url"`
	UUID        string   `json:"uuid"`
}

// records 转换为数据库记录，按 key 排序保证写入顺序稳定
func (m *Manifest) records() []database.MemeLib {
	keys := make([]string, 0, len(m.MemeLibs))
	for k := range m.MemeLibs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]database.MemeLib, 0, len(keys))
	for _, k := range keys {
		lib := m.MemeLibs[k]
		id := lib.UUID
		if id == "" {
			id = k
		}
		out = append(out, database.MemeLib{
			UUID:        id,
			Name:        lib.Name,
			Version:     lib.Version,
			Author:      lib.Author,
			Description: lib.Description,
			Tags:        lib.Tags,
			URL:         lib.URL,
			UpdateURL:   lib.UpdateURL,
			Timestamp:   int64(lib.Timestamp),
		})
	}
	return out
}
