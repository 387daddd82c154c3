// Package campaign は一括通知キャンペーンのファンアウトサービスの
// 内部実装を提供する。
//
// キャンペーン作成時にサマリーレコードを生成して期待総数を固定し、
// 受信者ごとの送信指示をKafkaへ発行する。実際の配信は外部の配信ワーカーが
// 担当し、その結果はOutcomeイベントとして集約ワーカーに届く。
//
// あわせて、配信結果の欠落に備えた強制完了シグナルの遅延送出も担当する。
// キャンペーンごとに送出期限を記録し、バックグラウンドのスケジューラーが
// 期限を過ぎたキャンペーンの強制完了シグナルをOutcomeトピックへ発行する。
package campaign
