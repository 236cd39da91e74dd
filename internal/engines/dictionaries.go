package engines

import "regexp"

// =============================================================================
// 变换规则表
// 源数据以有序关联表表达（不是map），先出现的条目先应用；
// 短语表的叠加顺序固定：base → business → urgent → superior，后叠加者覆盖同键
// =============================================================================

// dictEntry 词典条目（有序）
type dictEntry struct {
	casual string
	polite string
	reason string
}

// 单词级词典：完全子串一致，全局替换
// 大小写敏感（"OK"/"NG"按字面匹配，不做正规化）
// 注意顺序：长い表現を先に置く（"バグった"は"バグ"より先）
var wordDictionary = []dictEntry{
	{"アプデ", "アップデート", "略語をビジネス表現へ"},
	{"バグった", "不具合が発生しました", "口語の不具合報告を丁寧に"},
	{"バグ", "不具合", "技術スラングの言い換え"},
	{"おっけー", "承知いたしました", "口語の了承を敬語へ"},
	{"オッケー", "承知いたしました", "口語の了承を敬語へ"},
	{"OK", "承知いたしました", "英語略語の言い換え"},
	{"NG", "難しい状況です", "英語略語の言い換え"},
	{"りょ", "了解いたしました", "若者言葉の言い換え"},
	{"まじで", "本当に", "口語の強調を標準語へ"},
	{"マジで", "本当に", "口語の強調を標準語へ"},
	{"まじ", "本当に", "口語の強調を標準語へ"},
	{"マジ", "本当に", "口語の強調を標準語へ"},
	{"めっちゃ", "非常に", "口語の強調を標準語へ"},
	{"超", "非常に", "口語の強調を標準語へ"},
	{"やばい", "大変な状況", "口語表現の言い換え"},
	{"ヤバい", "大変な状況", "口語表現の言い換え"},
	{"ちょい", "少々", "口語表現の言い換え"},
	{"とりあえず", "まずは", "口語の接続表現を丁寧に"},
	{"ってか", "ところで", "口語の接続表現を丁寧に"},
	{"じゃあ", "それでは", "口語の接続表現を丁寧に"},
	{"ごめんなさい", "申し訳ございません", "謝罪表現を敬語へ"},
	{"ごめん", "申し訳ございません", "謝罪表現を敬語へ"},
	{"サンキュー", "ありがとうございます", "感謝表現を敬語へ"},
	{"あざす", "ありがとうございます", "感謝表現を敬語へ"},
	// 方言（関西・東北など）の標準語化
	{"どないしよ", "どうしましょうか", "関西方言の標準語化"},
	{"どない", "どのように", "関西方言の標準語化"},
	{"あかん", "良くない状況です", "関西方言の標準語化"},
	{"ほんま", "本当", "関西方言の標準語化"},
	{"なんぼ", "いくら", "関西方言の標準語化"},
	{"おおきに", "ありがとうございます", "関西方言の標準語化"},
	{"せやから", "ですから", "関西方言の標準語化"},
	{"めんどい", "手間のかかる", "口語表現の言い換え"},
}

// 基本短语词典
var basePhraseDictionary = []dictEntry{
	{"しといてくれる？", "していただけますでしょうか？", "依頼表現を敬語へ"},
	{"しといてください", "しておいていただけますか", "依頼表現を敬語へ"},
	{"しといて", "しておいていただけますか", "依頼表現を敬語へ"},
	{"してくれる？", "していただけますか？", "依頼表現を敬語へ"},
	{"してくれない？", "していただけませんか？", "依頼表現を敬語へ"},
	{"してくれ", "してください", "命令形を依頼形へ"},
	{"くれる？", "いただけますか？", "依頼表現を敬語へ"},
	{"もらえる？", "いただけますでしょうか？", "依頼表現を敬語へ"},
	{"どうする？", "いかがいたしましょうか？", "質問表現を敬語へ"},
	{"どう？", "いかがでしょうか？", "質問表現を敬語へ"},
	{"いい？", "よろしいでしょうか？", "確認表現を敬語へ"},
	{"いいかな", "よろしいでしょうか", "確認表現を敬語へ"},
	{"わかんない", "わかりかねます", "否定表現を婉曲に"},
	{"できない", "いたしかねます", "否定表現を婉曲に"},
	{"知らない", "存じ上げません", "否定表現を敬語へ"},
	{"見といて", "ご確認いただけますか", "依頼表現を敬語へ"},
	{"教えて", "教えていただけますでしょうか", "依頼表現を敬語へ"},
}

// ビジネス場面の上書き短语（situation=business時に叠加）
var businessPhraseOverlay = []dictEntry{
	{"了解", "承知いたしました", "ビジネスでは承知を使う"},
	{"わかった", "かしこまりました", "ビジネス向けの了承表現"},
	{"わかりました", "かしこまりました", "ビジネス向けの了承表現"},
	{"すぐやる", "早急に対応いたします", "ビジネス向けの対応表明"},
	{"やっとく", "対応しておきます", "口語の請負を丁寧に"},
	{"見といて", "ご査収ください", "ビジネス文書の定型表現"},
}

// 緊急時の上書き短语（urgency=urgent時に叠加）
var urgentPhraseOverlay = []dictEntry{
	{"早くして", "お忙しいところ恐縮ですが、お早めにご対応いただけますと幸いです", "急かし表現の緩和"},
	{"急いで", "至急ご対応のほどお願いいたします", "緊急依頼の定型表現"},
	{"今すぐ", "可能な限り早急に", "急かし表現の緩和"},
}

// 目上向けの上書き短语（relationship=superior時に叠加）
var superiorPhraseOverlay = []dictEntry{
	{"見といて", "ご高覧いただけますと幸いです", "目上への依頼表現"},
	{"教えて", "ご教示いただけますでしょうか", "目上への依頼表現"},
	{"確認して", "ご確認いただけますでしょうか", "目上への依頼表現"},
	{"行けない", "伺うことがかないません", "目上への欠席連絡"},
}

// patternRule 文構造の書き換え規則（順序付き、上から評価）
type patternRule struct {
	pattern *regexp.Regexp
	replace string
	reason  string
}

// 文末・構文パターンの書き換え規則鏈
var structuralPatterns = []patternRule{
	{regexp.MustCompile(`(.+)だっけ？`), "${1}でしたでしょうか？", "口語の確認表現を敬語へ"},
	{regexp.MustCompile(`(.+)だっけ`), "${1}でしたでしょうか", "口語の確認表現を敬語へ"},
	{regexp.MustCompile(`(.+)じゃん`), "${1}ですね", "口語の文末表現を丁寧に"},
	{regexp.MustCompile(`(.+)だよね`), "${1}ですよね", "口語の文末表現を丁寧に"},
	{regexp.MustCompile(`(.+)だよな`), "${1}ですよね", "口語の文末表現を丁寧に"},
	{regexp.MustCompile(`(.+)って言って`), "${1}とお伝えください", "伝言依頼を敬語へ"},
	{regexp.MustCompile(`なんで(.+)？`), "なぜ${1}のでしょうか？", "質問表現を敬語へ"},
	{regexp.MustCompile(`なんで(.+)\?`), "なぜ${1}のでしょうか？", "質問表現を敬語へ"},
	{regexp.MustCompile(`(.+)だと思う$`), "${1}かと存じます", "推量表現を敬語へ"},
	{regexp.MustCompile(`(.+)してる？`), "${1}していらっしゃいますか？", "進行形の質問を敬語へ"},
}

// 丁寧さマーカー（catch-all判定用）。一つも含まない単文には
// 「をお願いします」を補う
var politeEndingMarkers = []string{
	"です", "ます", "ございます", "ください", "でしょうか", "お願い", "いたし", "いただ",
}

// 文区切り文字
var clauseSeparators = []string{"。", "、", "！", "？", "!", "?", "\n"}
