// Package aggregator は一括通知の配信結果イベントをサマリーレコードに
// 集約する処理を提供する。
//
// Kafkaからat-least-onceで届くOutcomeイベントを1件ずつ処理し、
// 成功・スロットリング・失敗のカウンターを加算する。観測済みの合計が
// 期待総数に達した時点で自然完了とし、イベントの欠落で自然完了に
// 到達できないレコードは、遅延送信される強制完了シグナルによって
// 終端状態に到達することを保証する。
//
// 各イベントの処理は独立しており、プロセス内に状態を持たない。
// 共有される可変状態はサマリーレコードストアのみである。同一レコードへの
// 処理が並行することがあり、読み取り時点のスナップショットから絶対値を
// 再計算して書き込むため、ロストアップデートが起こり得る。これは意図した
// 挙動であり、失われた加算分は強制完了時にunknownとして計上される。
package aggregator
