// Package errors: 처리 파이프라인 전체에서 공용으로 사용되는 에러 타입들을 정의한다.
// 저장소/락 같은 인프라 에러와 검증·무결성 계약 위반을 타입으로 구분한다.
package errors

import (
	"errors"
	"fmt"
)

// DatabaseError: 데이터베이스(PostgreSQL 등) 작업을 수행하는 도중 발생한 에러
type DatabaseError struct {
	Operation string
	Err       error
}

func (e DatabaseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("db error operation=%s", e.Operation)
	}
	return fmt.Sprintf("db error operation=%s: %v", e.Operation, e.Err)
}

func (e DatabaseError) Unwrap() error { return e.Err }

// RedisError: Valkey 작업을 수행하는 도중 발생한 에러
type RedisError struct {
	Operation string
	Err       error
}

func (e RedisError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("redis error operation=%s", e.Operation)
	}
	return fmt.Sprintf("redis error operation=%s: %v", e.Operation, e.Err)
}

func (e RedisError) Unwrap() error { return e.Err }

// ConflictError: 낙관적 동시성 제어 실패. 엔티티를 다시 읽은 뒤 재시도해야 한다.
// 부분 쓰기는 발생하지 않은 상태다.
type ConflictError struct {
	Entity string
	ID     uint64
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s id=%d was modified concurrently", e.Entity, e.ID)
}

// IsConflict: 에러가 낙관적 락 충돌인지 확인한다.
func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

// IntegrityError: 저장소 경계에서 거부된 계약 위반 (중복 레이팅, 중복 조정 등).
// 복구 가능한 런타임 상황이 아니라 배치 재실행 로직의 버그를 의미한다.
type IntegrityError struct {
	Constraint string
	Err        error
}

func (e IntegrityError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("integrity violation constraint=%s", e.Constraint)
	}
	return fmt.Sprintf("integrity violation constraint=%s: %v", e.Constraint, e.Err)
}

func (e IntegrityError) Unwrap() error { return e.Err }

// IsIntegrity: 에러가 무결성 계약 위반인지 확인한다.
func IsIntegrity(err error) bool {
	var target IntegrityError
	return errors.As(err, &target)
}

// ValidationError: 제출 데이터가 형식 검증을 통과하지 못했을 때 발생하는 에러.
// 배치를 중단시키지 않고 해당 엔티티의 거부 사유로 기록된다.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed field=%s: %s", e.Field, e.Message)
}

// TransitionError: 허용되지 않은 상태 전이를 시도했을 때 발생하는 에러
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("invalid transition entity=%s from=%s to=%s", e.Entity, e.From, e.To)
}

// LockError: 분산 락 획득 실패 등 락 관련 처리 중 발생하는 에러
type LockError struct {
	Key         string
	Description string
}

func (e LockError) Error() string {
	msg := e.Description
	if msg == "" {
		msg = "failed to acquire lock"
	}
	if e.Key != "" {
		msg = fmt.Sprintf("%s key=%s", msg, e.Key)
	}
	return msg
}
