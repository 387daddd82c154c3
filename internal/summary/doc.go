// Package summary は一括通知キャンペーンごとのサマリーレコードを
// 永続化するストアを提供する。
//
// レコードは(パーティションキー, 行キー)で一意に識別され、ポイントリードと
// マージ書き込み（指定したフィールドのみを更新し、他のフィールドには
// 触れない部分更新）をサポートする。集約処理と強制完了処理が共有する
// 唯一の可変状態はこのストアに存在する。
package summary
