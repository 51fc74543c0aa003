package answer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/WessleyAI/cakg/engine/graph"
)

// Answer sentences. Full-width punctuation is part of the format.
const (
	tmplYearStatus      = "%d年，%s"
	tmplNoYearStatus    = "并没有关于%d年的描述。"
	tmplCatalogStatus   = "%s在%d年，%s"
	tmplNoCatalogStatus = "并没有关于%d年%s的描述。"
	tmplExistCatalogs   = "%d年目录包括: %s。"
	tmplNoCatalogs      = "%d年没有任何目录记录。"

	tmplValue    = "%s%s为%s%s。"
	tmplNoRecord = "%s%s，无数据记录。"
	tmplNotFound = "没有找到“%s”的相关数据。"

	tmplShare         = "%s为%s%s，其占总体（%s）的%s%%，总体（%s）是其的%s倍。"
	tmplNoParent      = "无%s的父级数据记录，无法比较。"
	tmplAreaShare     = "%s的%s为%s%s，其占%s%s的%s%%，%s%s是其的%s倍。"
	tmplAreaNoRecord  = "%s无%s的数据记录，无法比较。"
	tmplAreaNoParent  = "%s无%s父级地区的数据记录，无法比较。"
	tmplShareYear     = "%d年%s为%s%s，其总体指标（%s）的为%s%s，约占总体的%s%%"
	tmplAreaShareYear = "%d年%s为%s%s，其总体地区（%s）的为%s%s，约占总体的%s%%"
	tmplShareChange   = "%s；%s；前者相比后者%s%s%%。"
	tmplYearsNoRecord = "无%d、%d这几年%s的数据记录，无法比较。"
	tmplYearsNoParent = "无%d、%d这几年%s的父级数据记录，无法比较。"

	tmplRatio        = "%s为%s%s，%s为%s%s，前者是后者的%s倍，后者是前者的%s倍。"
	tmplDiff         = "%s为%s%s，%s为%s%s，前者比后者%s%s%s。"
	tmplUnitMismatch = "%s的单位（%s）与%s的单位（%s）不同，无法比较。"
	tmplCompareNoRec = "无%s数据记录，无法比较。"
	tmplInvalidValue = "%s的记录为无效的值类型，无法比较。"
	tmplZeroBase     = "%s的基数为零，无法计算。"

	tmplTimeRatio = "%d年的%s（%s%s）是%d年的（%s%s）%s倍。"
	tmplTimeDiff  = "%d年的%s（%s%s）比%d年的（%s%s）%s%s%s。"
	tmplTimeNoRec = "无关于%d年的%s的记录。"

	tmplGrowth        = "%d年的%s为%s%s，其去年的为%s%s，同比%s%s%%。"
	tmplGrowthNoData  = "无%d年关于%s的数据。"
	tmplGrowthNotNum  = "%d年%s的记录非数值类型，无法计算。"
	tmplNoComposition = "指标“%s”没有任何组成。"
	tmplFirstYear     = "指标“%s”最早于%d年开始统计。"
	tmplNeverRecorded = "指标“%s”没有任何统计记录。"

	tmplChangeSame = "%d年与%d年的%s相同"
	tmplChangeDiff = "%d年与%d年相比，未统计%d个%s：%s"

	tmplTrendNotNum   = "指标“%s”非数值类型，无法比较。"
	tmplTrendNoParent = "无关于”%s“的父级记录。"
	tmplTrendNoRecord = "无关于”%s“的记录。"

	tmplRendered = "该问题的回答已渲染为图像，详见：%s。"
)

// Direction words, chosen from the sign of the computed change.
const (
	wordMore     = "多"
	wordLess     = "少"
	wordIncrease = "增加"
	wordDecrease = "减少"
	wordGrowth   = "增长"
	wordDecline  = "降低"
	wordRaise    = "提高"
)

// join strips each part's final "。", joins with "；" and closes the
// sentence.
func join(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	trimmed := make([]string, len(parts))
	for i, p := range parts {
		trimmed[i] = strings.TrimSuffix(p, "。")
	}
	return strings.Join(trimmed, "；") + "。"
}

// listNames joins names with "，".
func listNames(names []string) string { return strings.Join(names, "，") }

// round rounds the exact binary value of x to places decimals, ties to
// even. Scaling by a power of ten first would push 2.675 up to 2.68.
func round(x float64, places int) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	return r
}

// num formats a computed quantity rounded to places.
func num(x float64, places int) string {
	return graph.FormatNumber(round(x, places))
}

// signed picks the word for a non-negative delta or the other one, and
// returns it with the magnitude.
func signed(delta float64, places int, up, down string) (string, string) {
	r := round(delta, places)
	if r < 0 {
		return down, graph.FormatNumber(-r)
	}
	return up, graph.FormatNumber(math.Abs(r))
}

func notFound(name string) string { return fmt.Sprintf(tmplNotFound, name) }
