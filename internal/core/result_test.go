package core

import (
	"encoding/json"
	"errors"
	"strconv"
	"testing"
)

func TestAsOtherPreservesTag(t *testing.T) {
	toString := func(v int) string { return strconv.Itoa(v * 2) }

	loading := AsOther(Loading[int](), toString)
	if !loading.IsLoading() {
		t.Fatalf("expected loading, got %v", loading.Status())
	}

	cause := errors.New("boom")
	failed := AsOther(Failure[int](cause), toString)
	if !failed.IsFailure() {
		t.Fatalf("expected failure, got %v", failed.Status())
	}
	if failed.Err() != cause {
		t.Fatalf("expected the same error, got %v", failed.Err())
	}

	ok := AsOther(Success(21), toString)
	v, isSuccess := ok.Value()
	if !isSuccess || v != "42" {
		t.Fatalf("expected success 42, got %v %q", ok.Status(), v)
	}
}

func TestThenTurnsMappingErrorIntoFailure(t *testing.T) {
	cause := errors.New("bad payload")
	r := Then(Success("x"), func(string) (int, error) { return 0, cause })
	if !errors.Is(r.Err(), cause) {
		t.Fatalf("expected %v, got %v", cause, r.Err())
	}

	r = Then(Success("7"), strconv.Atoi)
	if v, _ := r.Value(); v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}

	if !Then(Loading[string](), strconv.Atoi).IsLoading() {
		t.Fatal("expected loading to pass through Then")
	}
}

func TestObserversOnlyFireOnMatchingTag(t *testing.T) {
	var success, loading, failure int

	observe := func(r Result[int]) Result[int] {
		return r.
			OnSuccess(func(int) { success++ }).
			OnLoading(func() { loading++ }).
			OnFailure(func(error) { failure++ })
	}

	observe(Success(1))
	observe(Loading[int]())
	observe(Loading[int]())
	got := observe(Failure[int](errors.New("x")))

	if success != 1 || loading != 2 || failure != 1 {
		t.Fatalf("unexpected counts: success=%d loading=%d failure=%d", success, loading, failure)
	}
	if !got.IsFailure() {
		t.Fatal("observers must return the result unchanged")
	}
}

func TestFailureAlwaysCarriesCause(t *testing.T) {
	r := Failure[int](nil)
	if !errors.Is(r.Err(), ErrUnknownFailure) {
		t.Fatalf("expected ErrUnknownFailure, got %v", r.Err())
	}

	var zero Result[int]
	if !zero.IsLoading() {
		t.Fatal("zero Result should be loading")
	}
}

func TestResultJSON(t *testing.T) {
	cases := map[string]struct {
		in   Result[float64]
		want string
	}{
		"loading": {Loading[float64](), `{"status":"loading"}`},
		"success": {Success(1.5), `{"status":"success","value":1.5}`},
		"failure": {Failure[float64](errors.New("nope")), `{"status":"failure","error":"nope"}`},
	}
	for name, tc := range cases {
		b, err := json.Marshal(tc.in)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if string(b) != tc.want {
			t.Fatalf("%s: expected %s, got %s", name, tc.want, b)
		}
	}
}
