package citation

import (
	"sort"
	"strconv"

	"stampy-lens/internal/app/models"
)

// References 规范化后文本中出现的标记编号，按首次出现顺序去重
func References(content string) []string {
	matches := markerPattern.FindAllStringSubmatch(Normalize(content), -1)
	refs := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		refs = append(refs, m[1])
	}
	return refs
}

// Select 返回 content 中引用到的来源，按标记首次出现的位置排序并从 1 开始重新编号，
// 未被引用的来源不返回。结果只取决于参数。
func Select(content string, citations []models.Citation) []models.DisplayCitation {
	refs := References(content)
	if len(refs) == 0 || len(citations) == 0 {
		return []models.DisplayCitation{}
	}
	position := make(map[string]int, len(refs))
	for i, ref := range refs {
		position[ref] = i
	}

	used := make([]models.DisplayCitation, 0, len(refs))
	taken := make(map[string]struct{}, len(refs))
	for _, c := range citations {
		if _, ok := position[c.Reference]; !ok {
			continue
		}
		if _, dup := taken[c.Reference]; dup {
			continue
		}
		taken[c.Reference] = struct{}{}
		used = append(used, models.DisplayCitation{Citation: c})
	}
	sort.SliceStable(used, func(i, j int) bool {
		return position[used[i].Reference] < position[used[j].Reference]
	})
	for i := range used {
		used[i].DisplayRef = strconv.Itoa(i + 1)
	}
	return used
}

// ReplaceMarkers 一次性把规范化文本中的每个 [n] 替换为 repl(n)，替换结果中的标记不会被再次替换
func ReplaceMarkers(text string, repl func(ref string) string) string {
	return markerPattern.ReplaceAllStringFunc(text, func(marker string) string {
		return repl(marker[1 : len(marker)-1])
	})
}
