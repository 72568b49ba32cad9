package problem

import (
	"context"
	"strings"

	"github.com/syntaxarena/arena/internal/arena"
)

// Catalog serves a fixed problem per difficulty. It backs the generator
// whenever the model is unavailable.
type Catalog struct{}

func (Catalog) Generate(_ context.Context, _, difficulty, _ string) (arena.Problem, error) {
	return Fallback(difficulty), nil
}

// Fallback returns the built-in problem for difficulty. Unknown values get
// the medium problem.
func Fallback(difficulty string) arena.Problem {
	switch strings.ToLower(difficulty) {
	case "easy":
		return arena.Problem{
			Title:       "Two Sum",
			Description: "Given an array of integers nums and an integer target, return indices of the two numbers such that they add up to target.",
			Examples: []string{
				"Input: nums = [2,7,11,15], target = 9 -> Output: [0,1]",
				"Input: nums = [3,2,4], target = 6 -> Output: [1,2]",
			},
			StarterCode: "public class Solution {\n    public int[] twoSum(int[] nums, int target) {\n        // Write your code here\n        return new int[]{};\n    }\n}",
			Difficulty:  "Easy",
		}
	case "hard":
		return arena.Problem{
			Title:       "Trapping Rain Water",
			Description: "Given n non-negative integers representing an elevation map where the width of each bar is 1, compute how much water it can trap after raining.",
			Examples: []string{
				"Input: height = [0,1,0,2,1,0,1,3,2,1,2,1] -> Output: 6",
				"Input: height = [4,2,0,3,2,5] -> Output: 9",
			},
			StarterCode: "public class Solution {\n    public int trap(int[] height) {\n        // Write your code here\n        return 0;\n    }\n}",
			Difficulty:  "Hard",
		}
	default:
		return arena.Problem{
			Title:       "Longest Substring Without Repeating Characters",
			Description: "Given a string s, find the length of the longest substring without repeating characters.",
			Examples: []string{
				`Input: s = "abcabcbb" -> Output: 3`,
				`Input: s = "bbbbb" -> Output: 1`,
			},
			StarterCode: "public class Solution {\n    public int lengthOfLongestSubstring(String s) {\n        // Write your code here\n        return 0;\n    }\n}",
			Difficulty:  "Medium",
		}
	}
}
