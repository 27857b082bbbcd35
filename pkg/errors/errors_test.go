// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	"errors"
	"testing"
)

func TestWrap(t *testing.T) {
	if Wrap(nil, "msg") != nil {
		t.Error("Wrap(nil, msg) should return nil")
	}
	err := errors.New("base")
	wrapped := Wrap(err, "plan")
	if wrapped == nil || wrapped.Error() != "plan: base" {
		t.Fatalf("Wrap: got %v", wrapped)
	}
	if !Is(wrapped, err) {
		t.Error("wrapped error should unwrap to base")
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "format %s", "x") != nil {
		t.Error("Wrapf(nil, ...) should return nil")
	}
	err := errors.New("base")
	wrapped := Wrapf(err, "prompt=%s", "draft")
	if wrapped.Error() != "prompt=draft: base" {
		t.Errorf("Wrapf: got %q", wrapped.Error())
	}
	if !errors.Is(wrapped, err) {
		t.Error("wrapped error should unwrap to base")
	}
}

func TestPublicMessage(t *testing.T) {
	sentinel := NewPublic("Could not do the thing.")
	msg, ok := PublicMessage(Wrap(sentinel, "planner"))
	if !ok || msg != "Could not do the thing." {
		t.Errorf("PublicMessage through wrap: got %q, %v", msg, ok)
	}
	if !Is(Wrap(sentinel, "x"), sentinel) {
		t.Error("public sentinel should match with Is")
	}
	if _, ok := PublicMessage(errors.New("dial tcp: refused")); ok {
		t.Error("plain error must not be public")
	}
	if _, ok := PublicMessage(nil); ok {
		t.Error("nil must not be public")
	}
}

func TestSentinels(t *testing.T) {
	if !errors.Is(Wrap(ErrNotFound, "prompt"), ErrNotFound) {
		t.Error("wrapped ErrNotFound should match")
	}
	if errors.Is(ErrInvalidArg, ErrNotFound) {
		t.Error("distinct sentinels must not match")
	}
}
